package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CartTTL est la durée de vie d'un panier non modifié (30 jours)
	CartTTL = 30 * 24 * time.Hour

	eventUpdated = "updated"
	eventCleared = "cleared"
)

// RedisSlot stocke chaque panier sous sa propre clé et publie chaque écriture
// sur un canal du même nom, pour la synchro entre onglets et instances.
type RedisSlot struct {
	client *redis.Client
	ttl    time.Duration
	origin string
}

func NewRedisSlot(client *redis.Client, ttl time.Duration) *RedisSlot {
	if ttl <= 0 {
		ttl = CartTTL
	}
	return &RedisSlot{
		client: client,
		ttl:    ttl,
		origin: uuid.NewString(),
	}
}

func (s *RedisSlot) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set écrit le panier et notifie les abonnés dans le même pipeline
func (s *RedisSlot) Set(ctx context.Context, key string, data []byte) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.ttl)
	pipe.Publish(ctx, key, eventUpdated+"|"+s.origin)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSlot) Delete(ctx context.Context, key string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Publish(ctx, key, eventCleared+"|"+s.origin)
	_, err := pipe.Exec(ctx)
	return err
}

// Watch s'abonne au canal de la clé. Les écritures faites par ce slot
// sont ignorées : seul un autre écrivain déclenche un signal.
func (s *RedisSlot) Watch(ctx context.Context, key string) (<-chan struct{}, func()) {
	pubsub := s.client.Subscribe(ctx, key)
	out := make(chan struct{}, 1)
	done := make(chan struct{})

	// attend la confirmation pour que l'abonnement soit actif au retour
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		close(out)
		return out, func() {}
	}

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				event, origin, _ := strings.Cut(msg.Payload, "|")
				if origin == s.origin {
					continue
				}
				if event != eventUpdated && event != eventCleared {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	return out, stop
}
