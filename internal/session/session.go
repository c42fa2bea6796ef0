package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"aurave_storefront/internal/cache"
	"aurave_storefront/internal/cart"
	"aurave_storefront/internal/logger"
	"aurave_storefront/internal/order"
	"aurave_storefront/internal/quickview"
)

// Session regroupe l'état d'un acheteur. Do sérialise ses intents :
// mutation, persistance, notification et re-rendu se terminent avant l'intent suivant.
type Session struct {
	ID        string
	Store     *cart.Store
	View      *cart.View
	Notifier  *cart.Notifier
	Selection *quickview.Selection

	mu        sync.Mutex
	lastSeen  time.Time
	closed    bool
	stopWatch func()

	// refs compte les abonnés longue durée (WebSocket), protégé par Registry.mu
	refs int
}

// ErrSessionClosed est retourné par Do sur une session libérée par Sweep ou Close
var ErrSessionClosed = errors.New("session closed")

func (s *Session) Do(fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.lastSeen = time.Now()
	return fn(s)
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func (s *Session) close() {
	if s.stopWatch != nil {
		s.stopWatch()
	}
	s.Notifier.Stop()
	s.mu.Lock()
	s.closed = true
	s.View.Close()
	s.mu.Unlock()
}

type Options struct {
	KeyPrefix   string
	BannerDelay time.Duration
}

// Registry associe un identifiant de session à sa Session, chargée depuis le slot au premier accès.
type Registry struct {
	slot cache.Slot
	log  *logger.Logger
	opts Options

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(slot cache.Slot, log *logger.Logger, opts Options) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = cart.StorageKey
	}
	if opts.BannerDelay <= 0 {
		opts.BannerDelay = cart.BannerDelay
	}
	return &Registry{
		slot:     slot,
		log:      log,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Key retourne la clé du slot durable pour une session
func (r *Registry) Key(id string) string {
	return r.opts.KeyPrefix + ":" + id
}

// Get retourne la session de id, chargée depuis le slot au premier accès.
// Le chargement se fait hors du verrou du registre.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		return sess
	}

	sess = r.open(ctx, id)

	r.mu.Lock()
	if existing, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		sess.close()
		return existing
	}
	r.sessions[id] = sess
	r.mu.Unlock()

	r.log.Debug("session chargée", "session_id", id, "items", sess.Store.TotalItems())
	return sess
}

func (r *Registry) open(ctx context.Context, id string) *Session {
	store := cart.NewStore(r.slot, r.Key(id), r.log)
	store.Load(ctx)
	sess := &Session{
		ID:        id,
		Store:     store,
		View:      cart.NewView(store, order.NewPrinter()),
		Notifier:  cart.NewNotifier(r.opts.BannerDelay),
		Selection: quickview.New(),
		lastSeen:  time.Now(),
	}
	if w, ok := r.slot.(cache.Watcher); ok {
		sess.stopWatch = r.watch(w, sess)
	}
	return sess
}

// Do exécute fn dans la session de id. Si la session a été libérée entre-temps,
// l'intent est rejoué sur la session rechargée.
func (r *Registry) Do(ctx context.Context, id string, fn func(*Session) error) error {
	for {
		err := r.Get(ctx, id).Do(fn)
		if !errors.Is(err, ErrSessionClosed) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Attach épingle la session de id tant qu'un abonné longue durée l'écoute :
// Sweep ne la libère pas avant l'appel de la fonction retournée.
func (r *Registry) Attach(ctx context.Context, id string) (*Session, func()) {
	for {
		sess := r.Get(ctx, id)
		r.mu.Lock()
		if r.sessions[id] != sess {
			r.mu.Unlock()
			continue
		}
		sess.refs++
		r.mu.Unlock()

		var once sync.Once
		return sess, func() {
			once.Do(func() {
				r.mu.Lock()
				sess.refs--
				r.mu.Unlock()
				sess.touch()
			})
		}
	}
}

// watch recharge le panier quand un autre écrivain modifie le slot
func (r *Registry) watch(w cache.Watcher, sess *Session) func() {
	ctx, cancel := context.WithCancel(context.Background())
	signals, stop := w.Watch(ctx, r.Key(sess.ID))

	go func() {
		for range signals {
			_ = sess.Do(func(s *Session) error {
				s.Store.Reload(ctx)
				return nil
			})
		}
	}()

	return func() {
		cancel()
		stop()
	}
}

// Sweep libère les sessions inactives depuis plus de idle, sauf celles épinglées par Attach.
// Le panier reste dans le slot.
func (r *Registry) Sweep(idle time.Duration) int {
	now := time.Now()

	r.mu.Lock()
	var expired []*Session
	for id, sess := range r.sessions {
		if sess.refs > 0 {
			continue
		}
		if sess.idleSince(now) > idle {
			expired = append(expired, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	return len(expired)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}
