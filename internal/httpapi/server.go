// Package httpapi exposes the storefront core over HTTP. It is a thin
// collaborator shell: handlers load session state, call into the core, and
// render the result as JSON.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/traveldeskerala-ui/efresh/internal/cart"
	"github.com/traveldeskerala-ui/efresh/internal/catalog"
	"github.com/traveldeskerala-ui/efresh/internal/checkout"
	"github.com/traveldeskerala-ui/efresh/internal/customer"
	"github.com/traveldeskerala-ui/efresh/internal/order"
	"github.com/traveldeskerala-ui/efresh/internal/storage"
	"github.com/traveldeskerala-ui/efresh/internal/timeslot"
	"github.com/traveldeskerala-ui/efresh/internal/wishlist"
)

// Server wires the core components behind a chi router.
type Server struct {
	catalog  *catalog.Catalog
	store    storage.Store
	settle   *checkout.Settlement
	history  *order.History
	wishlist *wishlist.Wishlist
	clock    func() time.Time
	logger   *zap.Logger
}

func New(cat *catalog.Catalog, st storage.Store, settle *checkout.Settlement, clock func() time.Time, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		catalog:  cat,
		store:    st,
		settle:   settle,
		history:  order.NewHistory(st),
		wishlist: wishlist.New(st),
		clock:    clock,
		logger:   logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/slots", s.handleSlots)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", s.handleProducts)
			r.Get("/products/{id}", s.handleProduct)
			r.Get("/categories", s.handleCategories)
			r.Get("/banners", s.handleBanners)
		})

		r.Get("/pincodes", s.handlePinCodes)
		r.Get("/session/pin", s.handleGetPin)
		r.Put("/session/pin", s.handleSetPin)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.handleGetCart)
			r.Delete("/", s.handleClearCart)
			r.Post("/items", s.handleAddItem)
			r.Put("/items", s.handleSetQuantity)
			r.Delete("/items/{productID}/{weight}", s.handleRemoveItem)
		})

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handlePutProfile)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", s.handleListOrders)
			r.Post("/", s.handlePlaceOrder)
			r.Patch("/{id}/status", s.handleOrderStatus)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", s.handleGetWishlist)
			r.Post("/{productID}", s.handleToggleWishlist)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg, field string) {
	s.writeJSON(w, status, errorBody{Error: msg, Field: field})
}

// --- slots ---

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, timeslot.Available(s.clock()))
}

// --- catalog ---

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Search(r.URL.Query().Get("q")))
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.catalog.Product(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "product not found", "")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Categories())
}

func (s *Server) handleBanners(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Banners())
}

// --- delivery area ---

func (s *Server) handlePinCodes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.PinCodes())
}

func (s *Server) handleGetPin(w http.ResponseWriter, r *http.Request) {
	var pc catalog.PinCode
	ok, err := s.store.Get(storage.KeyUserPin, &pc)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read delivery area", "")
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "delivery area not selected", "")
		return
	}
	s.writeJSON(w, http.StatusOK, pc)
}

func (s *Server) handleSetPin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Pin string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	pc, ok := s.catalog.PinCode(body.Pin)
	if !ok {
		s.writeError(w, http.StatusUnprocessableEntity, "we do not deliver to this PIN code yet", "pin")
		return
	}
	if err := s.store.Set(storage.KeyUserPin, pc); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save delivery area", "")
		return
	}
	s.writeJSON(w, http.StatusOK, pc)
}

// --- cart ---

type cartView struct {
	Items      []cart.Line `json:"items"`
	TotalItems int         `json:"totalItems"`
	Subtotal   int         `json:"subtotal"`
}

func (s *Server) renderCart(w http.ResponseWriter, c *cart.Cart) {
	s.writeJSON(w, http.StatusOK, cartView{
		Items:      c.Lines(),
		TotalItems: c.TotalItems(),
		Subtotal:   c.Subtotal(),
	})
}

func (s *Server) loadCart(w http.ResponseWriter) (*cart.Cart, bool) {
	c, err := cart.Load(s.store)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load cart", "")
		return nil, false
	}
	return c, true
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCart(w)
	if !ok {
		return
	}
	s.renderCart(w, c)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCart(w)
	if !ok {
		return
	}
	c.Clear()
	if err := c.Save(s.store); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save cart", "")
		return
	}
	s.renderCart(w, c)
}

type cartItemRequest struct {
	ProductID string         `json:"productId"`
	Weight    catalog.Weight `json:"weight"`
	Quantity  *int           `json:"quantity"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var body cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	p, ok := s.catalog.Product(body.ProductID)
	if !ok || !p.IsAvailable {
		s.writeError(w, http.StatusUnprocessableEntity, "product is not available", "productId")
		return
	}
	v, ok := p.Variant(body.Weight)
	if !ok {
		s.writeError(w, http.StatusUnprocessableEntity, "unknown variant weight", "weight")
		return
	}
	qty := 1
	if body.Quantity != nil {
		qty = *body.Quantity
	}
	if qty < 1 {
		s.writeError(w, http.StatusUnprocessableEntity, "quantity must be at least 1", "quantity")
		return
	}

	c, ok := s.loadCart(w)
	if !ok {
		return
	}
	c.Add(p, v, qty)
	if err := c.Save(s.store); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save cart", "")
		return
	}
	s.renderCart(w, c)
}

func (s *Server) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	var body cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Quantity == nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	c, ok := s.loadCart(w)
	if !ok {
		return
	}
	c.SetQuantity(body.ProductID, body.Weight, *body.Quantity)
	if err := c.Save(s.store); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save cart", "")
		return
	}
	s.renderCart(w, c)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCart(w)
	if !ok {
		return
	}
	c.Remove(chi.URLParam(r, "productID"), catalog.Weight(chi.URLParam(r, "weight")))
	if err := c.Save(s.store); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save cart", "")
		return
	}
	s.renderCart(w, c)
}

// --- profile ---

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	cust, err := customer.Load(s.store)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load profile", "")
		return
	}
	if cust == nil {
		s.writeError(w, http.StatusNotFound, "no account yet", "")
		return
	}
	s.writeJSON(w, http.StatusOK, cust)
}

// handlePutProfile merges the submitted fields into the stored profile,
// creating one when the session is still a guest.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string             `json:"name"`
		Phone     string             `json:"phone"`
		Email     string             `json:"email"`
		PinCode   string             `json:"pinCode"`
		Addresses []customer.Address `json:"addresses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	cust, err := customer.Load(s.store)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load profile", "")
		return
	}
	if cust == nil {
		cust = customer.New(body.Name, body.Phone, body.Email)
	}
	if body.Name != "" {
		cust.Name = body.Name
	}
	if body.Phone != "" {
		cust.Phone = body.Phone
	}
	if body.Email != "" {
		cust.Email = body.Email
	}
	if body.PinCode != "" {
		cust.PinCode = body.PinCode
	}
	for _, a := range body.Addresses {
		cust.UpsertAddress(a)
	}
	if err := cust.Save(s.store); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save profile", "")
		return
	}
	s.writeJSON(w, http.StatusOK, cust)
}

// --- orders ---

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.history.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load orders", "")
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	s.writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	c, ok := s.loadCart(w)
	if !ok {
		return
	}
	cust, err := customer.Load(s.store)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load profile", "")
		return
	}

	o, err := s.settle.PlaceOrder(c, cust, req)
	if err != nil {
		var serr *checkout.Error
		if errors.As(err, &serr) {
			switch serr.Code {
			case checkout.CodeValidation:
				s.writeError(w, http.StatusUnprocessableEntity, serr.Message, serr.Field)
			case checkout.CodeSlotUnavailable:
				s.writeError(w, http.StatusConflict, serr.Message, "")
			default:
				s.writeError(w, http.StatusInternalServerError, serr.Message, "")
			}
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to place order", "")
		return
	}
	s.writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status order.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	o, err := s.history.UpdateStatus(chi.URLParam(r, "id"), body.Status)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error(), "")
		return
	}
	s.writeJSON(w, http.StatusOK, o)
}

// --- wishlist ---

func (s *Server) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	ids, err := s.wishlist.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load wishlist", "")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleToggleWishlist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if _, ok := s.catalog.Product(id); !ok {
		s.writeError(w, http.StatusNotFound, "product not found", "")
		return
	}
	on, err := s.wishlist.Toggle(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to update wishlist", "")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"wishlisted": on})
}
