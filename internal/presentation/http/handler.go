package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Zhima-Mochi/minishop-cartmanager/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-cartmanager/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/minishop-cartmanager/internal/application/catalog"
	domcart "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability/logctx"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerLocation       = "Location"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Carts    *appcart.Service
	Checkout application.UseCase[appcart.CheckoutInput, *domcart.Cart]
	Order    application.UseCase[appcart.OrderInput, *domcart.Cart]
	Products *appcatalog.Service
	// Store backs the readiness probe; nil means always ready.
	Store Pinger
	// BaseURL prefixes product locations.
	BaseURL string
}

type Handler struct {
	deps Dependencies
	log  observability.Logger
	tel  observability.Observability
}

func NewHandler(deps Dependencies, logger observability.Logger, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	if logger == nil {
		logger = tel.Logger()
	}
	return &Handler{
		deps: deps,
		log:  logger.With(observability.F("component", componentHTTPHandler)),
		tel:  tel,
	}
}

// Router wires each route with middlewares:
// Route → Trace → ObservabilityMiddleware (request logger + metrics) → Access log → Handler
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(
		withRoute,
		withTrace,
		ObservabilityMiddleware(h.log, func(r *http.Request) string {
			return r.Header.Get(headerRequestID)
		}, h.tel),
		withAccessLog(h.log),
	)

	r.HandleFunc("/carts", h.handleCreateCart).Methods(http.MethodPost)
	r.HandleFunc("/carts/{cartId}", h.handleGetCart).Methods(http.MethodGet)
	r.HandleFunc("/carts/{cartId}", h.handleUpdateCart).Methods(http.MethodPatch)
	r.HandleFunc("/carts/{cartId}", h.handleDeleteCart).Methods(http.MethodDelete)
	r.HandleFunc("/carts/{cartId}/products", h.handleAddProducts).Methods(http.MethodPost)
	r.HandleFunc("/carts/{cartId}/products/{productId:[0-9]+}", h.handleRemoveProduct).Methods(http.MethodDelete)
	r.HandleFunc("/carts/{cartId}/checkout", h.handleCheckout).Methods(http.MethodPost)
	r.HandleFunc("/carts/{cartId}/order", h.handleOrder).Methods(http.MethodPost)

	r.HandleFunc("/products", h.handleListProducts).Methods(http.MethodGet)
	r.HandleFunc("/products/{productId:[0-9]+}", h.handleGetProduct).Methods(http.MethodGet)

	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ready", h.handleReady).Methods(http.MethodGet)
	return r
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Carts.Get(r.Context(), mux.Vars(r)["cartId"])
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, c)
}

func (h *Handler) handleCreateCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Carts.Create(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeCart(w, http.StatusCreated, c)
}

func (h *Handler) handleUpdateCart(w http.ResponseWriter, r *http.Request) {
	var req updateCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.deps.Carts.Update(r.Context(), mux.Vars(r)["cartId"], appcart.UpdateInput{
		ProductIDs:      req.ProductIDs,
		Recipient:       req.Recipient,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, c)
}

func (h *Handler) handleDeleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Carts.Delete(r.Context(), mux.Vars(r)["cartId"]); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddProducts(w http.ResponseWriter, r *http.Request) {
	var productIDs []int
	if err := decodeJSON(r, &productIDs); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.deps.Carts.AddProducts(r.Context(), mux.Vars(r)["cartId"], productIDs)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, c)
}

func (h *Handler) handleRemoveProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	productID, err := strconv.Atoi(vars["productId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid product id %q", vars["productId"]))
		return
	}
	c, err := h.deps.Carts.RemoveProduct(r.Context(), vars["cartId"], productID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, c)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Checkout.Execute(r.Context(), appcart.CheckoutInput{CartID: mux.Vars(r)["cartId"]})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, c)
}

func (h *Handler) handleOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	info := payment.Information{BillingAddress: req.BillingAddress}
	if req.PaymentMethod != nil {
		m := payment.Method(*req.PaymentMethod)
		info.Method = &m
	}

	c, err := h.deps.Order.Execute(r.Context(), appcart.OrderInput{
		CartID:  mux.Vars(r)["cartId"],
		Payment: info,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, c)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.Atoi(mux.Vars(r)["productId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.deps.Products.Get(r.Context(), productID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	location := h.productLocation(productID)
	w.Header().Set(headerLocation, location)
	writeJSON(w, http.StatusOK, newProductResponse(p, location))
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Products.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductListResponse(res, h.productLocation))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.deps.Store != nil {
		if err := h.deps.Store.Ping(r.Context()); err != nil {
			logctx.FromOr(r.Context(), h.log).Warn("readiness_check_failed", observability.Err(err))
			writeError(w, http.StatusServiceUnavailable, errors.New("cart store unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (h *Handler) productLocation(productID int) string {
	return h.deps.BaseURL + "/products/" + strconv.Itoa(productID)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeCart(w http.ResponseWriter, status int, c *domcart.Cart) {
	if c.Meta.Location != "" {
		w.Header().Set(headerLocation, c.Meta.Location)
	}
	writeJSON(w, status, newCartResponse(c))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domcart.ErrNoChange):
		return http.StatusNotModified
	case errors.Is(err, domcart.ErrNotFound), errors.Is(err, domcatalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domcart.ErrInvalidState), errors.Is(err, domcart.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, domcart.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, payment.ErrInvalidInformation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusNotModified:
		w.WriteHeader(status)
	case http.StatusInternalServerError:
		logctx.FromOr(r.Context(), h.log).Error("http_internal_error", observability.Err(err))
		writeError(w, status, errors.New(http.StatusText(status)))
	default:
		writeError(w, status, err)
	}
}
