package order

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"aurave_storefront/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// DefaultPhone est le numéro WhatsApp de la boutique
	DefaultPhone = "923352723423"
	endpoint     = "https://wa.me/"

	header        = "Hi Auravé! I would like to order:\n\n"
	confirmOrder  = "Please confirm my order!"
	confirmStock  = "Please confirm availability!"
	currencyLabel = "Rs."
)

var ErrEmptyCart = errors.New("cart is empty")

// Order est un message de commande et son lien WhatsApp
type Order struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// Builder transforme un panier ou une sélection en message de commande.
// Il ne mute rien : même entrée, même sortie.
type Builder struct {
	Phone   string
	Printer *message.Printer
}

func NewBuilder(phone string) *Builder {
	if phone == "" {
		phone = DefaultPhone
	}
	return &Builder{
		Phone:   phone,
		Printer: NewPrinter(),
	}
}

// NewPrinter retourne l'imprimante utilisée pour grouper les milliers ("4,000")
func NewPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

// FormatRupees formate un montant entier sans décimales : "Rs. 4,000"
func FormatRupees(p *message.Printer, amount int) string {
	if p == nil {
		p = NewPrinter()
	}
	return p.Sprintf("%s %d", currencyLabel, amount)
}

func (b *Builder) Rupees(amount int) string {
	return FormatRupees(b.Printer, amount)
}

// CartMessage : en-tête, une ligne "{q}x {name} - Rs. {ligne}" par article, puis le total.
func (b *Builder) CartMessage(items []models.LineItem) string {
	var sb strings.Builder
	sb.WriteString(header)

	total := 0
	for _, it := range items {
		line := it.LineTotal()
		total += line
		sb.WriteString(strconv.Itoa(it.Quantity) + "x " + it.Name + " - " + b.Rupees(line) + "\n")
	}

	sb.WriteString("\nTotal: ")
	sb.WriteString(b.Rupees(total))
	sb.WriteString("\n\n")
	sb.WriteString(confirmOrder)
	return sb.String()
}

// SingleItemMessage est la commande directe depuis la quick-view
func (b *Builder) SingleItemMessage(name, size string, price, quantity int) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(strconv.Itoa(quantity) + "x " + name + "\n")
	sb.WriteString("Size: " + size + "\n")
	sb.WriteString("Price: " + b.Rupees(price*quantity) + "\n\n")
	sb.WriteString(confirmStock)
	return sb.String()
}

// Link construit https://wa.me/<phone>?text=<message encodé>.
// L'encodage est total : toute chaîne produit un lien valide.
func (b *Builder) Link(msg string) string {
	return endpoint + b.Phone + "?text=" + encodeComponent(msg)
}

func (b *Builder) CartOrder(items []models.LineItem) (Order, error) {
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}
	msg := b.CartMessage(items)
	return Order{Message: msg, URL: b.Link(msg)}, nil
}

func (b *Builder) SingleItemOrder(name, size string, price, quantity int) Order {
	msg := b.SingleItemMessage(name, size, price, quantity)
	return Order{Message: msg, URL: b.Link(msg)}
}

// componentUnescape rend à QueryEscape les caractères que encodeURIComponent laisse en clair
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent encode comme encodeURIComponent : espaces en %20, pas en "+".
func encodeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
