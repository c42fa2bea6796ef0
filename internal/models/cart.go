package models

// Bornes d'une ligne : price*quantity et le total du panier restent loin du débordement.
const (
	MaxPrice    = 100_000_000
	MaxQuantity = 10_000
)

// LineItem est une ligne du panier, identifiée par (Name, Size).
// ID n'est jamais persisté : le schéma du slot reste name/price/image/quantity/size.
type LineItem struct {
	ID       string  `json:"-"`
	Name     string  `json:"name"`
	Price    int     `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
	Size     *string `json:"size,omitempty"`
}

// Cart est la séquence ordonnée des lignes, ordre d'insertion = ordre d'affichage.
type Cart []LineItem

// LineTotal retourne price * quantity
func (i LineItem) LineTotal() int {
	return i.Price * i.Quantity
}

// SizeLabel retourne la taille, ou "" si l'article n'en a pas
func (i LineItem) SizeLabel() string {
	if i.Size == nil {
		return ""
	}
	return *i.Size
}

// SameKey compare la clé (name, size) ; une taille absente est distincte de toute taille.
func (i LineItem) SameKey(name string, size *string) bool {
	if i.Name != name {
		return false
	}
	if i.Size == nil || size == nil {
		return i.Size == nil && size == nil
	}
	return *i.Size == *size
}

// Clone copie la ligne, y compris le pointeur de taille
func (i LineItem) Clone() LineItem {
	out := i
	if i.Size != nil {
		s := *i.Size
		out.Size = &s
	}
	return out
}
