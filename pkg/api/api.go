// Package api exposes the order service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tableorders/pkg/logger"
	"tableorders/pkg/order"
	"tableorders/pkg/otel"
)

// Handler serves the order endpoints.
type Handler struct {
	svc     *order.Service
	log     *logger.Logger
	tracer  trace.Tracer
	metrics *Metrics
}

// New returns a Handler. tracer and metrics may be nil.
func New(svc *order.Service, log *logger.Logger, tracer trace.Tracer, metrics *Metrics) *Handler {
	return &Handler{svc: svc, log: log, tracer: tracer, metrics: metrics}
}

// Router builds the mux router with every route and middleware installed,
// wrapped in CORS and gzip handling.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(h.traceMiddleware, h.metricsMiddleware)

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/configs", h.getConfig).Methods(http.MethodGet)
	r.HandleFunc("/menus", h.listMenus).Methods(http.MethodGet)
	r.HandleFunc("/orders", h.createOrders).Methods(http.MethodPost)

	tables := r.PathPrefix("/tables/{id}").Subrouter()
	tables.HandleFunc("/orders", h.listTableOrders).Methods(http.MethodGet)
	tables.HandleFunc("/orders/{order_id}", h.getTableOrder).Methods(http.MethodGet)
	tables.HandleFunc("/orders/{order_id}", h.deleteTableOrder).Methods(http.MethodDelete)

	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)
	}
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.CompressHandler(cors(r))
}

// ConfigResponse is the payload of GET /configs.
type ConfigResponse struct {
	TableRange order.TableRange `json:"table_range" swaggertype:"array,integer"`
}

// CreateOrdersRequest is the body of POST /orders.
type CreateOrdersRequest struct {
	TableID uint32           `json:"table_id"`
	Menus   []order.MenuItem `json:"menus"`
}

// health reports liveness.
// @Summary Health check
// @Produce json
// @Success 200 {object} api.Envelope
// @Router /health [get]
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, Envelope{Status: StatusSuccess, Message: "healthy"})
}

// getConfig returns the table range.
// @Summary Service configuration
// @Produce json
// @Success 200 {object} api.Envelope{data=api.ConfigResponse}
// @Router /configs [get]
func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, r, http.StatusOK, ConfigResponse{TableRange: h.svc.TableRange()})
}

// listMenus returns the menu catalog.
// @Summary List menu items
// @Produce json
// @Success 200 {object} api.Envelope{data=[]order.MenuItem}
// @Router /menus [get]
func (h *Handler) listMenus(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, r, http.StatusOK, h.svc.Menu())
}

// createOrders places one order per requested menu item.
// @Summary Create orders
// @Accept json
// @Produce json
// @Param request body api.CreateOrdersRequest true "Table and menu items"
// @Success 200 {object} api.Envelope{data=[]order.Order}
// @Failure 400 {object} api.Envelope
// @Router /orders [post]
func (h *Handler) createOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createOrders")
	defer span.End()

	var req CreateOrdersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	span.SetAttributes(attribute.Int64("table_id", int64(req.TableID)), attribute.Int("menus", len(req.Menus)))

	orders, err := h.svc.CreateOrders(ctx, req.TableID, req.Menus)
	if err != nil {
		if errors.Is(err, order.ErrInvalidTable) {
			h.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error(ctx, "create orders", "table_id", req.TableID, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeData(w, r, http.StatusOK, orders)
}

// listTableOrders lists a table's orders.
// @Summary List table orders
// @Produce json
// @Param id path int true "Table ID"
// @Success 200 {object} api.Envelope{data=[]order.Order}
// @Failure 400 {object} api.Envelope
// @Router /tables/{id}/orders [get]
func (h *Handler) listTableOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listTableOrders")
	defer span.End()

	tableID, ok := h.tableIDVar(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.ListForTable(ctx, tableID)
	if err != nil {
		h.log.Error(ctx, "list orders", "table_id", tableID, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	h.log.Debug(ctx, "list orders", "table_id", tableID, "count", len(orders))
	h.writeData(w, r, http.StatusOK, orders)
}

// getTableOrder retrieves an order of a table.
// @Summary Get table order
// @Produce json
// @Param id path int true "Table ID"
// @Param order_id path string true "Order ID"
// @Success 200 {object} api.Envelope{data=order.Order}
// @Failure 404 {object} api.Envelope
// @Router /tables/{id}/orders/{order_id} [get]
func (h *Handler) getTableOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getTableOrder")
	defer span.End()

	tableID, orderID, ok := h.orderVars(w, r)
	if !ok {
		return
	}
	o, err := h.svc.GetOrder(ctx, tableID, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			h.writeError(w, r, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error(ctx, "get order", "table_id", tableID, "order_id", orderID, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeData(w, r, http.StatusOK, o)
}

// deleteTableOrder removes an order of a table.
// @Summary Delete table order
// @Param id path int true "Table ID"
// @Param order_id path string true "Order ID"
// @Success 204
// @Failure 404 {object} api.Envelope
// @Router /tables/{id}/orders/{order_id} [delete]
func (h *Handler) deleteTableOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deleteTableOrder")
	defer span.End()

	tableID, orderID, ok := h.orderVars(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(ctx, tableID, orderID); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			h.writeError(w, r, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error(ctx, "delete order", "table_id", tableID, "order_id", orderID, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tableIDVar(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid table id")
		return 0, false
	}
	return uint32(id), true
}

func (h *Handler) orderVars(w http.ResponseWriter, r *http.Request) (uint32, uuid.UUID, bool) {
	tableID, ok := h.tableIDVar(w, r)
	if !ok {
		return 0, uuid.Nil, false
	}
	orderID, err := uuid.Parse(mux.Vars(r)["order_id"])
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid order id")
		return 0, uuid.Nil, false
	}
	return tableID, orderID, true
}
