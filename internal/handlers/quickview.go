package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"aurave_storefront/internal/cart"
	"aurave_storefront/internal/models"
	"aurave_storefront/internal/order"
	"aurave_storefront/internal/quickview"
	"aurave_storefront/internal/session"

	"github.com/gin-gonic/gin"
)

var errUnknownSize = errors.New("unknown size")

type quickViewState struct {
	Open      bool            `json:"open"`
	Product   *models.Product `json:"product,omitempty"`
	PriceText string          `json:"price_text,omitempty"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	Sizes     []string        `json:"sizes"`
}

func (h *Handler) quickViewState(sel *quickview.Selection) quickViewState {
	st := quickViewState{
		Open:     sel.IsOpen(),
		Size:     sel.Size(),
		Quantity: sel.Quantity(),
		Sizes:    quickview.Sizes,
	}
	if p, ok := sel.Product(); ok {
		st.Product = &p
		st.PriceText = h.orders.Rupees(sel.Price())
	}
	return st
}

// selectionIntent exécute fn sur la sélection et renvoie son état
func (h *Handler) selectionIntent(c *gin.Context, fn func(*session.Session) error) {
	var st quickViewState
	err := h.do(c, func(s *session.Session) error {
		if err := fn(s); err != nil {
			return err
		}
		st = h.quickViewState(s.Selection)
		return nil
	})
	if errors.Is(err, errUnknownSize) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// POST /api/quickview
func (h *Handler) OpenQuickView(c *gin.Context) {
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	h.selectionIntent(c, func(s *session.Session) error {
		return s.Selection.Open(p)
	})
}

// GET /api/quickview
func (h *Handler) GetQuickView(c *gin.Context) {
	h.selectionIntent(c, func(*session.Session) error { return nil })
}

// POST /api/quickview/size
func (h *Handler) SelectSize(c *gin.Context) {
	var input struct {
		Size string `json:"size" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	h.selectionIntent(c, func(s *session.Session) error {
		if !s.Selection.SelectSize(input.Size) {
			return errUnknownSize
		}
		return nil
	})
}

// POST /api/quickview/quantity/increase
func (h *Handler) IncreaseQuantity(c *gin.Context) {
	h.selectionIntent(c, func(s *session.Session) error {
		s.Selection.Increase()
		return nil
	})
}

// POST /api/quickview/quantity/decrease
func (h *Handler) DecreaseQuantity(c *gin.Context) {
	h.selectionIntent(c, func(s *session.Session) error {
		s.Selection.Decrease()
		return nil
	})
}

// POST /api/quickview/commit
func (h *Handler) CommitQuickView(c *gin.Context) {
	var snap cart.Snapshot
	err := h.do(c, func(s *session.Session) error {
		added, err := s.Selection.Commit(c.Request.Context(), s.Store)
		if err != nil {
			return err
		}
		s.Notifier.Show(fmt.Sprintf("%dx %s added to cart!", added.Quantity, added.Name))
		snap = s.View.Snapshot()
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DELETE /api/quickview
func (h *Handler) DiscardQuickView(c *gin.Context) {
	h.selectionIntent(c, func(s *session.Session) error {
		s.Selection.Discard()
		return nil
	})
}

// GET /api/quickview/order
func (h *Handler) OrderQuickView(c *gin.Context) {
	var o order.Order
	err := h.do(c, func(s *session.Session) error {
		var err error
		o, err = s.Selection.Order(h.orders)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
