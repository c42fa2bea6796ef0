package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const CartRateWindow = 1 * time.Minute

// CartRateLimit limite les intents panier par session (anti-spam).
// Sans client Redis, le middleware laisse tout passer.
func CartRateLimit(client *redis.Client, max int) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetString(SessionIDKey)
		if client == nil || max <= 0 || sessionID == "" {
			c.Next()
			return
		}

		ctx := context.Background()
		key := "cart_intents:" + sessionID

		requests, _ := client.Get(ctx, key).Int()
		if requests >= max {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many cart updates, slow down",
				"retry_after": int(CartRateWindow.Seconds()),
			})
			c.Abort()
			return
		}

		pipe := client.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, CartRateWindow)
		pipe.Exec(ctx)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max-requests-1))

		c.Next()
	}
}
