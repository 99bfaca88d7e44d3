package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"orderdesk/pkg/logger"
	"orderdesk/pkg/order"
	"orderdesk/pkg/otel"
)

// orderService is the subset of order.Service the handlers need.
type orderService interface {
	List(ctx context.Context) ([]order.Order, error)
	Create(ctx context.Context, in order.NewOrder) (order.Order, error)
	Get(ctx context.Context, id int) (order.Order, error)
	UpdateStatus(ctx context.Context, id int, status string) (order.Order, error)
	Summary(ctx context.Context) (order.Summary, error)
}

type handlers struct {
	svc orderService
	log *logger.Logger
}

func (h *handlers) span(r *http.Request, name string) (context.Context, trace.Span) {
	return otel.AddSpan(r.Context(), name, attribute.String("http.request_id", requestID(r.Context())))
}

// listOrders lists orders.
// @Summary List orders
// @Produce json
// @Success 200 {array} order.Order
// @Router /orders [get]
func (h *handlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "listOrdersHandler")
	defer span.End()

	orders, err := h.svc.List(ctx)
	if err != nil {
		h.respondErr(ctx, w, "list orders", err)
		return
	}
	respond(w, http.StatusOK, orders)
}

// createOrder creates a new order.
// @Summary Create order
// @Accept json
// @Produce json
// @Param order body createOrderRequest true "Order"
// @Success 201 {object} order.Order
// @Failure 422 {object} validationResponse
// @Router /orders [post]
func (h *handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "createOrderHandler")
	defer span.End()

	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondErr(ctx, w, "create order", err)
		return
	}
	in, err := req.toNewOrder()
	if err != nil {
		h.respondErr(ctx, w, "create order", err)
		return
	}

	o, err := h.svc.Create(ctx, in)
	if err != nil {
		h.respondErr(ctx, w, "create order", err)
		return
	}
	span.SetAttributes(attribute.Int("order.id", o.ID))
	h.log.Info(ctx, "order created", "id", o.ID, "items", len(o.Items), "total", o.Total)
	respond(w, http.StatusCreated, o)
}

// orderSummary reports the number of orders and their combined value.
// @Summary Order summary
// @Produce json
// @Success 200 {object} order.Summary
// @Router /orders/summary [get]
func (h *handlers) orderSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "orderSummaryHandler")
	defer span.End()

	sum, err := h.svc.Summary(ctx)
	if err != nil {
		h.respondErr(ctx, w, "order summary", err)
		return
	}
	respond(w, http.StatusOK, sum)
}

// getOrder retrieves an order by ID.
// @Summary Get order
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404 {object} errorResponse
// @Router /orders/{id} [get]
func (h *handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "getOrderHandler")
	defer span.End()

	id, err := orderID(r)
	if err != nil {
		h.respondErr(ctx, w, "get order", err)
		return
	}
	span.SetAttributes(attribute.Int("order.id", id))

	o, err := h.svc.Get(ctx, id)
	if err != nil {
		h.respondErr(ctx, w, "get order", err)
		return
	}
	respond(w, http.StatusOK, o)
}

// updateOrderStatus changes the status of an existing order.
// @Summary Update order status
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param status body statusUpdateRequest true "New status"
// @Success 200 {object} order.Order
// @Failure 400 {object} invalidStatusResponse
// @Failure 404 {object} errorResponse
// @Router /orders/{id} [patch]
func (h *handlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.span(r, "updateOrderStatusHandler")
	defer span.End()

	var req statusUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondErr(ctx, w, "update order status", err)
		return
	}
	if req.Status == nil {
		h.respondErr(ctx, w, "update order status", order.ValidationErrors{requiredField("status")})
		return
	}

	// The status is rejected before the id is resolved, including ids
	// too large to parse.
	if _, err := order.ParseStatus(*req.Status); err != nil {
		h.respondErr(ctx, w, "update order status", err)
		return
	}

	id, err := orderID(r)
	if err != nil {
		h.respondErr(ctx, w, "update order status", err)
		return
	}
	span.SetAttributes(attribute.Int("order.id", id))

	o, err := h.svc.UpdateStatus(ctx, id, *req.Status)
	if err != nil {
		h.respondErr(ctx, w, "update order status", err)
		return
	}
	h.log.Info(ctx, "order status updated", "id", o.ID, "status", o.Status)
	respond(w, http.StatusOK, o)
}

// healthHandler reports basic liveness for the service.
// @Summary Liveness probe
// @Produce plain
// @Success 200
// @Router /health [get]
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusNotFound, errorResponse{Detail: "not found"})
}

func methodNotAllowedHandler(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusMethodNotAllowed, errorResponse{Detail: "method not allowed"})
}

// orderID reads the numeric id path variable. The route only matches
// digits, so a parse failure means the value overflows int and cannot
// name a stored order.
func orderID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, order.ErrNotFound
	}
	return id, nil
}

// decodeBody decodes the JSON request body into v. Failures are reported
// as validation errors against the offending field.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if err == nil {
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return order.ValidationErrors{{Field: "body", Message: "unexpected data after JSON value"}}
		}
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return order.ValidationErrors{{Field: "body", Message: "request body is required"}}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return order.ValidationErrors{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		}}
	default:
		return order.ValidationErrors{{Field: "body", Message: err.Error()}}
	}
}

// respondErr maps service errors onto HTTP responses. Anything it does not
// recognise is logged and reported as a 500.
func (h *handlers) respondErr(ctx context.Context, w http.ResponseWriter, op string, err error) {
	var (
		verrs     order.ValidationErrors
		statusErr *order.InvalidStatusError
	)
	switch {
	case errors.As(err, &verrs):
		respond(w, http.StatusUnprocessableEntity, validationResponse{Detail: verrs})
	case errors.As(err, &statusErr):
		respond(w, http.StatusBadRequest, invalidStatusResponse{
			Detail:          err.Error(),
			AllowedStatuses: order.Statuses(),
		})
	case errors.Is(err, order.ErrNotFound):
		respond(w, http.StatusNotFound, errorResponse{Detail: order.ErrNotFound.Error()})
	default:
		h.log.Error(ctx, op, "error", err)
		respond(w, http.StatusInternalServerError, errorResponse{Detail: "internal error"})
	}
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
