package middleware

import (
	"net/http"

	"aurave_storefront/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	SessionCookieName = "aurave_session"
	// SessionIDKey est la clé gin du context qui porte l'identifiant de session
	SessionIDKey = "session_id"
)

// NewCookieStore configure le store de cookies signés de session
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Session attribue un identifiant stable à chaque navigateur
func Session(store sessions.Store, log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, SessionCookieName)
		if err != nil {
			// cookie invalide ou secret changé : on repart d'une session neuve
			log.Debug("cookie de session invalide", "error", err)
		}

		id, _ := sess.Values["id"].(string)
		if id == "" {
			id = uuid.NewString()
			sess.Values["id"] = id
			if err := sess.Save(c.Request, c.Writer); err != nil {
				log.Error("sauvegarde de la session échouée", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
				return
			}
		}

		c.Set(SessionIDKey, id)
		c.Next()
	}
}
