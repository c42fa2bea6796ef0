package cart

import (
	"sync"
	"time"
)

// BannerDelay est la durée d'affichage de la bannière de notification
const BannerDelay = 3000 * time.Millisecond

// Messages de la bannière
const (
	MsgAdded     = "Added to cart!"
	MsgRemoved   = "Removed from cart"
	MsgEmptyCart = "Your cart is empty!"
)

type Banner struct {
	Message string `json:"message"`
	Visible bool   `json:"visible"`
}

// Notifier gère la bannière transitoire. Chaque Show relance le délai :
// le dernier appel gagne.
type Notifier struct {
	mu        sync.Mutex
	delay     time.Duration
	state     Banner
	seq       uint64
	timer     *time.Timer
	listeners map[int]func(Banner)
	nextID    int
}

func NewNotifier(delay time.Duration) *Notifier {
	if delay <= 0 {
		delay = BannerDelay
	}
	return &Notifier{
		delay:     delay,
		listeners: make(map[int]func(Banner)),
	}
}

func (n *Notifier) Show(msg string) {
	n.mu.Lock()
	n.seq++
	seq := n.seq
	n.state = Banner{Message: msg, Visible: true}
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.delay, func() { n.hide(seq) })
	state := n.state
	n.mu.Unlock()

	n.emit(state)
}

func (n *Notifier) hide(seq uint64) {
	n.mu.Lock()
	if seq != n.seq {
		n.mu.Unlock()
		return
	}
	n.state.Visible = false
	state := n.state
	n.mu.Unlock()

	n.emit(state)
}

func (n *Notifier) State() Banner {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// OnChange est appelé à chaque affichage et masquage
func (n *Notifier) OnChange(fn func(Banner)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := n.nextID
	n.listeners[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

// Stop annule le masquage en attente
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	if n.timer != nil {
		n.timer.Stop()
	}
}

func (n *Notifier) emit(state Banner) {
	n.mu.Lock()
	fns := make([]func(Banner), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
