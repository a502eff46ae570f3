package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ducnt198x/resbarpos/internal/domain"
	"github.com/ducnt198x/resbarpos/internal/service"
)

// OrderHandler serves the per-table order lifecycle. All routes hang
// off /pos/api/v1/orders/{tableID}/...; the special table id TAKEAWAY
// addresses walk-in orders.
type OrderHandler struct {
	orders *service.OrderService
	logger *zap.Logger
}

func NewOrderHandler(orders *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

func (h *OrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/pos/api/v1/orders/")
	tableID, action, ok := strings.Cut(rest, "/")
	if !ok || tableID == "" || strings.Contains(action, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch action {
	case "editor":
		switch r.Method {
		case http.MethodPost:
			h.OpenEditor(w, r, tableID)
		case http.MethodDelete:
			h.orders.CloseOrderEditor(tableID)
			writeJSON(w, http.StatusOK, Ok(true))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "cart":
		switch r.Method {
		case http.MethodGet:
			h.GetCart(w, r, tableID)
		case http.MethodPost:
			h.AddCartItem(w, r, tableID)
		case http.MethodPatch:
			h.UpdateCartItem(w, r, tableID)
		case http.MethodDelete:
			h.RemoveCartItem(w, r, tableID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "confirm":
		h.post(w, r, tableID, h.Confirm)
	case "guests":
		h.post(w, r, tableID, h.Guests)
	case "payment":
		h.post(w, r, tableID, h.Payment)
	case "cancel":
		h.post(w, r, tableID, h.Cancel)
	case "transfer":
		h.post(w, r, tableID, h.Transfer)
	case "merge":
		h.post(w, r, tableID, h.Merge)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *OrderHandler) post(w http.ResponseWriter, r *http.Request, tableID string, fn func(http.ResponseWriter, *http.Request, string)) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	fn(w, r, tableID)
}

type editorResponse struct {
	Menu  []domain.MenuItem  `json:"menu"`
	Cart  []service.CartLine `json:"cart"`
	Total float64            `json:"total"`
}

// OpenEditor opens the order panel: fresh menu plus the preloaded cart.
func (h *OrderHandler) OpenEditor(w http.ResponseWriter, r *http.Request, tableID string) {
	menu, cart, err := h.orders.OpenOrderEditor(r.Context(), tableID)
	if err != nil {
		writeError(w, err)
		return
	}
	var total float64
	for _, l := range cart {
		total += l.Price * float64(l.Quantity)
	}
	writeJSON(w, http.StatusOK, Ok(editorResponse{Menu: menu, Cart: cart, Total: total}))
}

type cartResponse struct {
	Cart  []service.CartLine `json:"cart"`
	Total float64            `json:"total"`
}

func (h *OrderHandler) writeCart(w http.ResponseWriter, tableID string) {
	lines, total, err := h.orders.CartLines(tableID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(cartResponse{Cart: lines, Total: total}))
}

func (h *OrderHandler) GetCart(w http.ResponseWriter, _ *http.Request, tableID string) {
	h.writeCart(w, tableID)
}

func (h *OrderHandler) AddCartItem(w http.ResponseWriter, r *http.Request, tableID string) {
	var req struct {
		MenuItemID int64 `json:"menu_item_id"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := h.orders.AddCartItem(tableID, req.MenuItemID); err != nil {
		writeError(w, err)
		return
	}
	h.writeCart(w, tableID)
}

func (h *OrderHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request, tableID string) {
	var req struct {
		MenuItemID int64 `json:"menu_item_id"`
		Quantity   int   `json:"quantity"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := h.orders.UpdateCartQty(tableID, req.MenuItemID, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	h.writeCart(w, tableID)
}

func (h *OrderHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request, tableID string) {
	var req struct {
		MenuItemID int64 `json:"menu_item_id"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := h.orders.RemoveCartItem(tableID, req.MenuItemID); err != nil {
		writeError(w, err)
		return
	}
	h.writeCart(w, tableID)
}

// Confirm commits the draft cart, creating or editing the table's order.
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request, tableID string) {
	order, err := h.orders.ConfirmOrder(r.Context(), tableID, userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(order))
}

func (h *OrderHandler) Guests(w http.ResponseWriter, r *http.Request, tableID string) {
	var req struct {
		Guests int `json:"guests"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := h.orders.UpdateGuestCount(r.Context(), tableID, req.Guests); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(true))
}

func (h *OrderHandler) Payment(w http.ResponseWriter, r *http.Request, tableID string) {
	var req struct {
		Method string `json:"method"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	method := domain.PaymentMethod(req.Method)
	switch method {
	case domain.PayCash, domain.PayCard, domain.PayTransfer:
	default:
		writeJSON(w, http.StatusBadRequest, Fail("unknown payment method"))
		return
	}
	if err := h.orders.CompletePayment(r.Context(), tableID, method); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(true))
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request, tableID string) {
	if err := h.orders.CancelOrder(r.Context(), tableID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(true))
}

func (h *OrderHandler) Transfer(w http.ResponseWriter, r *http.Request, tableID string) {
	var req struct {
		ToTableID string `json:"to_table_id"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := h.orders.TransferOrder(r.Context(), tableID, req.ToTableID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(true))
}

func (h *OrderHandler) Merge(w http.ResponseWriter, r *http.Request, tableID string) {
	var req struct {
		ToTableID string `json:"to_table_id"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := h.orders.MergeOrder(r.Context(), tableID, req.ToTableID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(true))
}
