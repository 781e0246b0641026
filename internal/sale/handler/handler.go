package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tienda/internal/sale/models"
	dErrors "tienda/pkg/domain-errors"
	"tienda/pkg/platform/httputil"
)

// Service defines the sale operations the handler needs.
type Service interface {
	RegisterSale(ctx context.Context, customerID int64, cart []models.CartLine) (*models.Sale, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.SaleWithDetails, error)
}

type registerRequest struct {
	CustomerID int64              `json:"customer_id"`
	Lines      []registerLineBody `json:"lines"`
}

type registerLineBody struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// Handler exposes sale registration and queries over HTTP.
type Handler struct {
	sales  Service
	logger *slog.Logger
}

// New creates a sale Handler.
func New(sales Service, logger *slog.Logger) *Handler {
	return &Handler{sales: sales, logger: logger}
}

// Register mounts the sale routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/sales", h.handleList)
	r.Post("/sales", h.handleRegister)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	cart, err := buildCart(req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sale, err := h.sales.RegisterSale(r.Context(), req.CustomerID, cart)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sale)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sales, err := h.sales.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sales)
}

// buildCart validates the request shape only. Business rules such as stock
// and product existence belong to the service.
func buildCart(req registerRequest) ([]models.CartLine, error) {
	if req.CustomerID <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "customer_id must be a positive integer")
	}
	cart := make([]models.CartLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.ProductID <= 0 {
			return nil, dErrors.New(dErrors.CodeBadRequest, "product_id must be a positive integer")
		}
		if line.Quantity <= 0 {
			return nil, dErrors.New(dErrors.CodeBadRequest, "quantity must be a positive integer")
		}
		cart = append(cart, models.CartLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return cart, nil
}

func parseFilter(r *http.Request) (models.ListFilter, error) {
	var filter models.ListFilter
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, dErrors.New(dErrors.CodeBadRequest, "customer_id must be a positive integer")
		}
		filter.CustomerID = &id
	}
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, dErrors.New(dErrors.CodeBadRequest, "product_id must be a positive integer")
		}
		filter.ProductID = &id
	}
	return filter, nil
}
