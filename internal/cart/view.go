package cart

import (
	"bytes"
	"context"
	"html/template"

	"aurave_storefront/internal/order"

	"golang.org/x/text/message"
)

// EmptyPlaceholder est affiché à la place des lignes quand le panier est vide
const EmptyPlaceholder = "Your cart is empty"

type Row struct {
	Index         int    `json:"index"`
	ID            string `json:"id"`
	Name          string `json:"name"`
	Image         string `json:"image"`
	Size          string `json:"size,omitempty"`
	Quantity      int    `json:"quantity"`
	LinePrice     int    `json:"line_price"`
	LinePriceText string `json:"line_price_text"`
}

// Snapshot est la projection affichable du panier à un instant donné
type Snapshot struct {
	Empty       bool   `json:"empty"`
	Placeholder string `json:"placeholder,omitempty"`
	Rows        []Row  `json:"items"`
	Count       int    `json:"count"`
	Total       int    `json:"total"`
	TotalText   string `json:"total_text"`
}

var fragment = template.Must(template.New("cart").Parse(`{{if .Empty}}<p class="empty-cart">{{.Placeholder}}</p>{{else}}{{range .Rows}}<div class="cart-item" data-id="{{.ID}}">
  <div class="cart-item-image"><img src="{{.Image}}" alt="{{.Name}}"></div>
  <div class="cart-item-details">
    <div class="cart-item-header">
      <h4>{{.Name}}{{if .Size}} ({{.Size}}){{end}}</h4>
      <button class="remove-item" data-index="{{.Index}}"><i class="fa-solid fa-times"></i></button>
    </div>
    <div class="cart-item-footer">
      <span class="cart-item-price">{{.LinePriceText}}</span>
      <div class="cart-item-quantity">
        <button class="quantity-btn decrease" data-index="{{.Index}}"><i class="fa-solid fa-minus"></i></button>
        <span class="quantity-display">{{.Quantity}}</span>
        <button class="quantity-btn increase" data-index="{{.Index}}"><i class="fa-solid fa-plus"></i></button>
      </div>
    </div>
  </div>
</div>
{{end}}{{end}}`))

// View est une projection pure du Store. Elle se re-rend à chaque notification,
// donc les index qu'elle expose correspondent toujours au dernier rendu.
type View struct {
	store   *Store
	printer *message.Printer

	snap      Snapshot
	html      template.HTML
	listeners []renderListener
	nextID    int
	stop      func()
}

type renderListener struct {
	id int
	fn func(Snapshot)
}

func NewView(store *Store, printer *message.Printer) *View {
	if printer == nil {
		printer = order.NewPrinter()
	}
	v := &View{store: store, printer: printer}
	v.stop = store.Subscribe(func(Event) { v.render() })
	v.render()
	return v
}

// Close désinscrit la vue du Store
func (v *View) Close() {
	if v.stop != nil {
		v.stop()
		v.stop = nil
	}
}

func (v *View) Snapshot() Snapshot {
	out := v.snap
	out.Rows = append([]Row(nil), v.snap.Rows...)
	return out
}

func (v *View) HTML() template.HTML {
	return v.html
}

// OnRender est appelé après chaque rendu ; la fonction retournée désinscrit.
func (v *View) OnRender(fn func(Snapshot)) func() {
	v.nextID++
	id := v.nextID
	v.listeners = append(v.listeners, renderListener{id: id, fn: fn})
	return func() {
		for i, l := range v.listeners {
			if l.id == id {
				v.listeners = append(v.listeners[:i:i], v.listeners[i+1:]...)
				return
			}
		}
	}
}

// Intents émis par une ligne rendue
func (v *View) Remove(ctx context.Context, index int) error    { return v.store.Remove(ctx, index) }
func (v *View) Increment(ctx context.Context, index int) error { return v.store.Increment(ctx, index) }
func (v *View) Decrement(ctx context.Context, index int) error { return v.store.Decrement(ctx, index) }

func (v *View) render() {
	items := v.store.Items()
	snap := Snapshot{
		Count: v.store.TotalItems(),
		Total: v.store.TotalPrice(),
	}
	snap.TotalText = order.FormatRupees(v.printer, snap.Total)

	if len(items) == 0 {
		snap.Empty = true
		snap.Placeholder = EmptyPlaceholder
		snap.Rows = []Row{}
	} else {
		snap.Rows = make([]Row, 0, len(items))
		for i, it := range items {
			snap.Rows = append(snap.Rows, Row{
				Index:         i,
				ID:            it.ID,
				Name:          it.Name,
				Image:         it.Image,
				Size:          it.SizeLabel(),
				Quantity:      it.Quantity,
				LinePrice:     it.LineTotal(),
				LinePriceText: order.FormatRupees(v.printer, it.LineTotal()),
			})
		}
	}

	var buf bytes.Buffer
	if err := fragment.Execute(&buf, snap); err != nil {
		v.store.log.Error("rendu du panier échoué", "error", err)
	}
	v.snap = snap
	v.html = template.HTML(buf.String())

	listeners := append([]renderListener(nil), v.listeners...)
	for _, l := range listeners {
		l.fn(v.Snapshot())
	}
}
