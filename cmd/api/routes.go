package main

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"

	_ "orderdesk/docs"
	"orderdesk/pkg/logger"
)

// newRouter builds the full HTTP handler. The id variable only matches
// digits, so /orders/summary can never be read as an order id whatever
// order the routes are registered in.
func newRouter(svc orderService, log *logger.Logger, tracer trace.Tracer) http.Handler {
	h := &handlers{svc: svc, log: log}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/orders").Subrouter()
	api.HandleFunc("", h.listOrders).Methods(http.MethodGet)
	api.HandleFunc("", h.createOrder).Methods(http.MethodPost)
	api.HandleFunc("/summary", h.orderSummary).Methods(http.MethodGet)
	api.HandleFunc("/{id:[0-9]+}", h.getOrder).Methods(http.MethodGet)
	api.HandleFunc("/{id:[0-9]+}", h.updateOrderStatus).Methods(http.MethodPatch)

	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	return requestIDMiddleware(traceMiddleware(tracer, logRequests(log, r)))
}
