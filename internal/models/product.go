package models

// Product est le produit inspecté dans la quick-view.
// Price est la chaîne entière telle qu'elle arrive de l'UI (data-price).
type Product struct {
	Name        string `json:"name" binding:"required"`
	Price       string `json:"price" binding:"required"`
	Image       string `json:"image"`
	Description string `json:"description"`
}
