package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router wraps the standard library ServeMux (no third-party routing
// dependency needed at this route count).
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterFloorPlanRoutes hooks up the floor-plan screen.
func (r *Router) RegisterFloorPlanRoutes(h *FloorPlanHandler) {
	r.Handle("/pos/api/v1/floor/tables", h.ServeHTTP)
	r.Handle("/pos/api/v1/floor/tables/", h.ServeHTTP)
	r.Handle("/pos/api/v1/floor/mode", h.ServeHTTP)
	r.Handle("/pos/api/v1/floor/selection", h.ServeHTTP)
	r.Handle("/pos/api/v1/floor/gesture", h.ServeHTTP)
}

// RegisterOrderRoutes hooks up the per-table order lifecycle.
func (r *Router) RegisterOrderRoutes(h *OrderHandler) {
	r.Handle("/pos/api/v1/orders/", h.ServeHTTP)
}
