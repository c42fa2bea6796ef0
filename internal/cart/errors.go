package cart

import "errors"

// Erreurs de rejet : l'opération est un no-op, aucun abonné n'est notifié.
var (
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrIndexOutOfRange = errors.New("cart index out of range")
)
