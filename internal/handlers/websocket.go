package handlers

import (
	"net/http"
	"time"

	"aurave_storefront/internal/cart"
	"aurave_storefront/internal/middleware"
	"aurave_storefront/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsPingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// l'origine est déjà filtrée par le middleware CORS
		return true
	},
}

type wsMessage struct {
	Type         string         `json:"type"`
	Message      string         `json:"message,omitempty"`
	Cart         *cart.Snapshot `json:"cart,omitempty"`
	Notification *cart.Banner   `json:"notification,omitempty"`
}

// GET /ws/cart : pousse chaque re-rendu du panier et chaque changement de bannière
func (h *Handler) CartWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("upgrade WebSocket échoué", "error", err)
		return
	}
	defer conn.Close()

	// la session reste épinglée tant que le socket est ouvert
	sess, release := h.sessions.Attach(c.Request.Context(), c.GetString(middleware.SessionIDKey))
	defer release()

	out := make(chan wsMessage, 32)
	push := func(m wsMessage) {
		select {
		case out <- m:
		default:
			// client trop lent : il récupérera l'état au prochain rendu
		}
	}

	var stopRender func()
	err = sess.Do(func(s *session.Session) error {
		stopRender = s.View.OnRender(func(snap cart.Snapshot) {
			push(wsMessage{Type: "cart_updated", Cart: &snap})
		})
		snap := s.View.Snapshot()
		push(wsMessage{Type: "connected", Message: "cart sync enabled"})
		push(wsMessage{Type: "cart_updated", Cart: &snap})
		return nil
	})
	if err != nil {
		return
	}
	stopBanner := sess.Notifier.OnChange(func(b cart.Banner) {
		push(wsMessage{Type: "notification", Notification: &b})
	})
	defer func() {
		stopBanner()
		_ = sess.Do(func(*session.Session) error {
			stopRender()
			return nil
		})
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case msg := <-out:
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("envoi WebSocket échoué", "session_id", sess.ID, "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
