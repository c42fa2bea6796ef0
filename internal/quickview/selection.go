package quickview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"aurave_storefront/internal/models"
	"aurave_storefront/internal/order"
)

const (
	MinQuantity = 1
	MaxQuantity = 10
	DefaultSize = "L"
)

// Sizes est l'ensemble fixe des tailles proposées
var Sizes = []string{"S", "M", "L", "XL", "XXL"}

var (
	ErrNotOpen      = errors.New("no product selected")
	ErrInvalidPrice = errors.New("invalid product price")
)

// Adder est la partie du panier utilisée au commit
type Adder interface {
	Add(ctx context.Context, name string, price int, image string, size *string, qty int) error
}

// Selection garde le produit inspecté, la taille et la quantité choisies
// jusqu'au commit ou à l'abandon. Rien n'est persisté.
type Selection struct {
	product  *models.Product
	price    int
	size     string
	quantity int
}

func New() *Selection {
	return &Selection{quantity: MinQuantity}
}

// Open remplace la sélection courante ; taille et quantité repartent des valeurs par défaut.
func (s *Selection) Open(p models.Product) error {
	price, err := strconv.Atoi(strings.TrimSpace(p.Price))
	if err != nil || price < 0 || price > models.MaxPrice {
		return fmt.Errorf("%w: %q", ErrInvalidPrice, p.Price)
	}
	prod := p
	s.product = &prod
	s.price = price
	s.size = ""
	s.quantity = MinQuantity
	return nil
}

func (s *Selection) IsOpen() bool {
	return s.product != nil
}

func (s *Selection) Product() (models.Product, bool) {
	if s.product == nil {
		return models.Product{}, false
	}
	return *s.product, true
}

func (s *Selection) Price() int    { return s.price }
func (s *Selection) Quantity() int { return s.quantity }

// Size retourne la taille choisie, ou la taille par défaut si aucune
func (s *Selection) Size() string {
	if s.size == "" {
		return DefaultSize
	}
	return s.size
}

// SelectSize active une seule taille à la fois ; une taille inconnue est ignorée.
func (s *Selection) SelectSize(size string) bool {
	size = strings.ToUpper(strings.TrimSpace(size))
	for _, opt := range Sizes {
		if opt == size {
			s.size = size
			return true
		}
	}
	return false
}

// SetQuantity hors de [1, 10] est ignoré silencieusement
func (s *Selection) SetQuantity(q int) bool {
	if q < MinQuantity || q > MaxQuantity {
		return false
	}
	s.quantity = q
	return true
}

func (s *Selection) Increase() bool { return s.SetQuantity(s.quantity + 1) }
func (s *Selection) Decrease() bool { return s.SetQuantity(s.quantity - 1) }

// Commit ajoute la sélection au panier puis la referme.
// En cas d'erreur la sélection reste ouverte.
func (s *Selection) Commit(ctx context.Context, cart Adder) (models.LineItem, error) {
	if s.product == nil {
		return models.LineItem{}, ErrNotOpen
	}
	size := s.Size()
	if err := cart.Add(ctx, s.product.Name, s.price, s.product.Image, &size, s.quantity); err != nil {
		return models.LineItem{}, err
	}
	added := models.LineItem{
		Name:     s.product.Name,
		Price:    s.price,
		Image:    s.product.Image,
		Quantity: s.quantity,
		Size:     &size,
	}
	s.Discard()
	return added, nil
}

// Discard abandonne la sélection sans toucher au panier
func (s *Selection) Discard() {
	s.product = nil
	s.price = 0
	s.size = ""
	s.quantity = MinQuantity
}

// Order construit la commande directe WhatsApp de la sélection
func (s *Selection) Order(b *order.Builder) (order.Order, error) {
	if s.product == nil {
		return order.Order{}, ErrNotOpen
	}
	return b.SingleItemOrder(s.product.Name, s.Size(), s.price, s.quantity), nil
}
