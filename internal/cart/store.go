package cart

import (
	"context"
	"encoding/json"
	"errors"

	"aurave_storefront/internal/cache"
	"aurave_storefront/internal/logger"
	"aurave_storefront/internal/models"

	"github.com/google/uuid"
)

// StorageKey est le nom du slot durable ; un suffixe de session est ajouté par le registre.
const StorageKey = "auraveCart"

type EventKind string

const (
	EventLoaded  EventKind = "loaded"
	EventAdded   EventKind = "added"
	EventUpdated EventKind = "updated"
	EventRemoved EventKind = "removed"
	EventCleared EventKind = "cleared"
)

// Event décrit la mutation qui vient d'être persistée.
// Index et Item ne sont pas renseignés pour EventLoaded et EventCleared.
type Event struct {
	Kind  EventKind
	Index int
	Item  models.LineItem
}

type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

// Store est la source de vérité du panier. Toute mutation passe par lui :
// muter, persister, puis notifier, de façon synchrone.
// Le Store n'est pas thread-safe ; l'appelant sérialise les intents (voir session.Session).
type Store struct {
	slot cache.Slot
	key  string
	log  *logger.Logger

	items     []models.LineItem
	listeners []subscription
	nextSub   int
}

func NewStore(slot cache.Slot, key string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		slot: slot,
		key:  key,
		log:  log.With("cart_key", key),
	}
}

// Load lit le slot. Absent ou illisible : panier vide, jamais d'erreur.
func (s *Store) Load(ctx context.Context) models.Cart {
	items, err := s.read(ctx)
	if err != nil {
		s.log.Warn("lecture du panier impossible, panier vide", "error", err)
	}
	s.items = items
	s.notify(Event{Kind: EventLoaded, Index: -1})
	return s.Items()
}

// Reload relit le slot après l'écriture d'un autre onglet (le dernier écrivain gagne).
// Rien n'est réécrit ; si le slot est injoignable, l'état courant est conservé.
func (s *Store) Reload(ctx context.Context) {
	items, err := s.read(ctx)
	if err != nil {
		s.log.Warn("rechargement du panier impossible", "error", err)
		return
	}
	s.items = items
	s.notify(Event{Kind: EventLoaded, Index: -1})
}

// read ne retourne une erreur que si le slot est injoignable ;
// des données illisibles donnent un panier vide.
func (s *Store) read(ctx context.Context) ([]models.LineItem, error) {
	data, err := s.slot.Get(ctx, s.key)
	if errors.Is(err, cache.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var stored models.Cart
	if err := json.Unmarshal(data, &stored); err != nil {
		s.log.Warn("panier persistant illisible, panier vide", "error", err)
		return nil, nil
	}
	return s.sanitize(stored), nil
}

// sanitize applique les invariants aux données restaurées :
// lignes invalides ou hors bornes écartées, doublons (name, size) fusionnés.
func (s *Store) sanitize(stored models.Cart) []models.LineItem {
	items := make([]models.LineItem, 0, len(stored))
	for _, it := range stored {
		if it.Quantity < 1 || it.Quantity > models.MaxQuantity || it.Price < 0 || it.Price > models.MaxPrice {
			s.log.Debug("ligne persistée ignorée", "name", it.Name, "quantity", it.Quantity, "price", it.Price)
			continue
		}
		if i := indexOf(items, it.Name, it.Size); i >= 0 {
			items[i].Quantity = min(items[i].Quantity+it.Quantity, models.MaxQuantity)
			continue
		}
		it.ID = uuid.NewString()
		items = append(items, it)
	}
	return items
}

func indexOf(items []models.LineItem, name string, size *string) int {
	for i := range items {
		if items[i].SameKey(name, size) {
			return i
		}
	}
	return -1
}

// Add fusionne avec la ligne (name, size) existante ou ajoute une nouvelle ligne en fin de panier.
// Le prix d'une ligne existante n'est jamais modifié. Prix et quantité sont bornés par models.MaxPrice
// et models.MaxQuantity, y compris après fusion.
func (s *Store) Add(ctx context.Context, name string, price int, image string, size *string, qty int) error {
	if price < 0 || price > models.MaxPrice {
		return ErrInvalidPrice
	}
	if qty < 1 || qty > models.MaxQuantity {
		return ErrInvalidQuantity
	}

	if i := indexOf(s.items, name, size); i >= 0 {
		if s.items[i].Quantity+qty > models.MaxQuantity {
			return ErrInvalidQuantity
		}
		s.items[i].Quantity += qty
		s.commit(ctx, Event{Kind: EventUpdated, Index: i, Item: s.items[i].Clone()})
		return nil
	}

	item := models.LineItem{
		ID:       uuid.NewString(),
		Name:     name,
		Price:    price,
		Image:    image,
		Quantity: qty,
	}
	if size != nil {
		sz := *size
		item.Size = &sz
	}
	s.items = append(s.items, item)
	s.commit(ctx, Event{Kind: EventAdded, Index: len(s.items) - 1, Item: item.Clone()})
	return nil
}

func (s *Store) Remove(ctx context.Context, index int) error {
	if !s.inRange(index) {
		return ErrIndexOutOfRange
	}
	removed := s.items[index]
	s.items = append(s.items[:index], s.items[index+1:]...)
	s.commit(ctx, Event{Kind: EventRemoved, Index: index, Item: removed})
	return nil
}

func (s *Store) Increment(ctx context.Context, index int) error {
	if !s.inRange(index) {
		return ErrIndexOutOfRange
	}
	if s.items[index].Quantity >= models.MaxQuantity {
		return ErrInvalidQuantity
	}
	s.items[index].Quantity++
	s.commit(ctx, Event{Kind: EventUpdated, Index: index, Item: s.items[index].Clone()})
	return nil
}

// Decrement retire une unité ; une ligne à 1 est supprimée au lieu de passer à 0.
func (s *Store) Decrement(ctx context.Context, index int) error {
	if !s.inRange(index) {
		return ErrIndexOutOfRange
	}
	if s.items[index].Quantity <= 1 {
		return s.Remove(ctx, index)
	}
	s.items[index].Quantity--
	s.commit(ctx, Event{Kind: EventUpdated, Index: index, Item: s.items[index].Clone()})
	return nil
}

func (s *Store) Clear(ctx context.Context) {
	s.items = nil
	s.commit(ctx, Event{Kind: EventCleared, Index: -1})
}

// IndexOfID retrouve la position courante d'une ligne par son identifiant stable
func (s *Store) IndexOfID(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// TotalItems est la somme des quantités (badge), pas le nombre de lignes.
func (s *Store) TotalItems() int {
	total := 0
	for _, it := range s.items {
		total += it.Quantity
	}
	return total
}

func (s *Store) TotalPrice() int {
	total := 0
	for _, it := range s.items {
		total += it.LineTotal()
	}
	return total
}

func (s *Store) Len() int {
	return len(s.items)
}

// Items retourne une copie ; les appelants ne peuvent pas muter le panier.
func (s *Store) Items() models.Cart {
	out := make(models.Cart, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

// Subscribe enregistre un listener ; la fonction retournée le désinscrit.
func (s *Store) Subscribe(fn Listener) func() {
	s.nextSub++
	id := s.nextSub
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	return func() {
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) inRange(index int) bool {
	return index >= 0 && index < len(s.items)
}

// commit persiste puis notifie, dans cet ordre
func (s *Store) commit(ctx context.Context, ev Event) {
	s.persist(ctx)
	s.notify(ev)
}

// persist écrit le panier complet. Un panier vide supprime la clé.
// Un échec est journalisé : l'état en mémoire reste la référence.
func (s *Store) persist(ctx context.Context) {
	if len(s.items) == 0 {
		if err := s.slot.Delete(ctx, s.key); err != nil {
			s.log.Warn("suppression du panier persistant échouée", "error", err)
		}
		return
	}

	data, err := json.Marshal(models.Cart(s.items))
	if err != nil {
		s.log.Error("encodage du panier échoué", "error", err)
		return
	}
	if err := s.slot.Set(ctx, s.key, data); err != nil {
		s.log.Warn("sauvegarde du panier échouée", "error", err)
	}
}

func (s *Store) notify(ev Event) {
	subs := make([]subscription, len(s.listeners))
	copy(subs, s.listeners)
	for _, sub := range subs {
		sub.fn(ev)
	}
}
