package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"aurave_storefront/internal/cart"
	"aurave_storefront/internal/logger"
	"aurave_storefront/internal/middleware"
	"aurave_storefront/internal/order"
	"aurave_storefront/internal/quickview"
	"aurave_storefront/internal/session"

	"github.com/gin-gonic/gin"
)

// Handler est la couche HTTP : chaque requête est un intent de l'UI,
// exécuté dans la session de l'acheteur.
type Handler struct {
	sessions *session.Registry
	orders   *order.Builder
	log      *logger.Logger
}

func NewHandler(sessions *session.Registry, orders *order.Builder, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{sessions: sessions, orders: orders, log: log}
}

// do exécute un intent dans la session de l'acheteur
func (h *Handler) do(c *gin.Context, fn func(*session.Session) error) error {
	return h.sessions.Do(c.Request.Context(), c.GetString(middleware.SessionIDKey), fn)
}

// statusFor traduit une erreur de rejet en code HTTP
func statusFor(err error) int {
	switch {
	case errors.Is(err, cart.ErrIndexOutOfRange), errors.Is(err, quickview.ErrNotOpen):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidPrice),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, quickview.ErrInvalidPrice),
		errors.Is(err, order.ErrEmptyCart):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("intent panier échoué", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// GET /api/cart
func (h *Handler) GetCart(c *gin.Context) {
	var snap cart.Snapshot
	_ = h.do(c, func(s *session.Session) error {
		snap = s.View.Snapshot()
		return nil
	})
	c.JSON(http.StatusOK, snap)
}

// GET /api/cart/fragment
func (h *Handler) GetCartFragment(c *gin.Context) {
	var html string
	_ = h.do(c, func(s *session.Session) error {
		html = string(s.View.HTML())
		return nil
	})
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

type addInput struct {
	Name     string  `json:"name" binding:"required"`
	Price    string  `json:"price" binding:"required"`
	Image    string  `json:"image"`
	Size     *string `json:"size"`
	Quantity *int    `json:"quantity"`
}

// POST /api/cart/add
func (h *Handler) AddToCart(c *gin.Context) {
	var input addInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	price, err := strconv.Atoi(strings.TrimSpace(input.Price))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}
	qty := 1
	if input.Quantity != nil {
		qty = *input.Quantity
	}

	var snap cart.Snapshot
	err = h.do(c, func(s *session.Session) error {
		if err := s.Store.Add(c.Request.Context(), input.Name, price, input.Image, input.Size, qty); err != nil {
			return err
		}
		s.Notifier.Show(cart.MsgAdded)
		snap = s.View.Snapshot()
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// rowIntent applique apply à la ligne désignée par resolve
func (h *Handler) rowIntent(c *gin.Context, resolve func(*session.Session) (int, error), apply func(*session.Session, int) error) {
	var snap cart.Snapshot
	err := h.do(c, func(s *session.Session) error {
		index, err := resolve(s)
		if err != nil {
			return err
		}
		if err := apply(s, index); err != nil {
			return err
		}
		snap = s.View.Snapshot()
		return nil
	})
	if errors.Is(err, errInvalidIndex) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

var errInvalidIndex = errors.New("invalid index")

// byIndex lit la position affichée dans l'URL
func byIndex(c *gin.Context) func(*session.Session) (int, error) {
	return func(*session.Session) (int, error) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			return 0, errInvalidIndex
		}
		return index, nil
	}
}

// byID retrouve la position courante de la ligne par son identifiant stable
func byID(c *gin.Context) func(*session.Session) (int, error) {
	return func(s *session.Session) (int, error) {
		index := s.Store.IndexOfID(c.Param("id"))
		if index < 0 {
			return 0, cart.ErrIndexOutOfRange
		}
		return index, nil
	}
}

func (h *Handler) remove(c *gin.Context) func(*session.Session, int) error {
	return func(s *session.Session, i int) error {
		if err := s.View.Remove(c.Request.Context(), i); err != nil {
			return err
		}
		s.Notifier.Show(cart.MsgRemoved)
		return nil
	}
}

func increment(c *gin.Context) func(*session.Session, int) error {
	return func(s *session.Session, i int) error {
		return s.View.Increment(c.Request.Context(), i)
	}
}

func decrement(c *gin.Context) func(*session.Session, int) error {
	return func(s *session.Session, i int) error {
		return s.View.Decrement(c.Request.Context(), i)
	}
}

// DELETE /api/cart/:index
func (h *Handler) RemoveFromCart(c *gin.Context) {
	h.rowIntent(c, byIndex(c), h.remove(c))
}

// POST /api/cart/:index/increment
func (h *Handler) IncrementItem(c *gin.Context) {
	h.rowIntent(c, byIndex(c), increment(c))
}

// POST /api/cart/:index/decrement
func (h *Handler) DecrementItem(c *gin.Context) {
	h.rowIntent(c, byIndex(c), decrement(c))
}

// DELETE /api/cart/items/:id
func (h *Handler) RemoveItemByID(c *gin.Context) {
	h.rowIntent(c, byID(c), h.remove(c))
}

// POST /api/cart/items/:id/increment
func (h *Handler) IncrementItemByID(c *gin.Context) {
	h.rowIntent(c, byID(c), increment(c))
}

// POST /api/cart/items/:id/decrement
func (h *Handler) DecrementItemByID(c *gin.Context) {
	h.rowIntent(c, byID(c), decrement(c))
}

// DELETE /api/cart
func (h *Handler) ClearCart(c *gin.Context) {
	var snap cart.Snapshot
	_ = h.do(c, func(s *session.Session) error {
		s.Store.Clear(c.Request.Context())
		snap = s.View.Snapshot()
		return nil
	})
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) cartOrder(c *gin.Context) (order.Order, error) {
	var o order.Order
	err := h.do(c, func(s *session.Session) error {
		var err error
		o, err = h.orders.CartOrder(s.Store.Items())
		if errors.Is(err, order.ErrEmptyCart) {
			s.Notifier.Show(cart.MsgEmptyCart)
		}
		return err
	})
	return o, err
}

type orderResponse struct {
	order.Order
	QRCode string `json:"qr_code"`
}

// GET /api/cart/order
func (h *Handler) OrderCart(c *gin.Context) {
	o, err := h.cartOrder(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	qr, err := order.QRCodeDataURI(o.URL, order.DefaultQRSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse{Order: o, QRCode: qr})
}

// GET /api/cart/order/qr
func (h *Handler) OrderCartQR(c *gin.Context) {
	o, err := h.cartOrder(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(order.DefaultQRSize)))
	png, err := order.QRCode(o.URL, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
