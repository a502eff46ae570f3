package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ducnt198x/resbarpos/internal/domain"
	"github.com/ducnt198x/resbarpos/internal/service"
)

// FloorPlanHandler serves the floor-plan screen: the table list, the
// edit/live mode switch, selection and the drag/resize gesture stream.
type FloorPlanHandler struct {
	floor  *service.FloorPlanService
	logger *zap.Logger
}

func NewFloorPlanHandler(floor *service.FloorPlanService, logger *zap.Logger) *FloorPlanHandler {
	return &FloorPlanHandler{floor: floor, logger: logger}
}

func (h *FloorPlanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/pos/api/v1/floor/tables":
		switch r.Method {
		case http.MethodGet:
			h.ListTables(w, r)
		case http.MethodPost:
			h.AddTable(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(path, "/pos/api/v1/floor/tables/"):
		id := strings.TrimPrefix(path, "/pos/api/v1/floor/tables/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPatch:
			h.UpdateTable(w, r, id)
		case http.MethodDelete:
			h.DeleteTable(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case path == "/pos/api/v1/floor/mode":
		h.post(w, r, h.SwitchMode)
	case path == "/pos/api/v1/floor/selection":
		h.post(w, r, h.Select)
	case path == "/pos/api/v1/floor/gesture":
		h.post(w, r, h.Gesture)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *FloorPlanHandler) post(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	fn(w, r)
}

type floorStateResponse struct {
	Mode   service.FloorPlanMode `json:"mode"`
	Dirty  bool                  `json:"dirty"`
	Tables []domain.TableView    `json:"tables"`
}

func (h *FloorPlanHandler) state() floorStateResponse {
	return floorStateResponse{
		Mode:   h.floor.Mode(),
		Dirty:  h.floor.Dirty(),
		Tables: h.floor.ListTables(),
	}
}

// ListTables returns the merged floor snapshot.
func (h *FloorPlanHandler) ListTables(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.state()))
}

// AddTable drops a new table onto the canvas, optionally from a named
// template.
func (h *FloorPlanHandler) AddTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Template string `json:"template"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	var template *domain.TableTemplate
	if req.Template != "" {
		for i := range domain.TableTemplates {
			if strings.EqualFold(domain.TableTemplates[i].Label, req.Template) {
				template = &domain.TableTemplates[i]
				break
			}
		}
		if template == nil {
			writeJSON(w, http.StatusBadRequest, Fail("unknown table template"))
			return
		}
	}

	table, err := h.floor.AddTable(template)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(table))
}

// UpdateTable applies property edits (label, shape, seats) to one table.
func (h *FloorPlanHandler) UpdateTable(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Label *string `json:"label"`
		Shape *string `json:"shape"`
		Seats *int    `json:"seats"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	if req.Label != nil {
		if err := h.floor.RenameTable(id, *req.Label); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Shape != nil {
		if err := h.floor.ReshapeTable(id, domain.TableShape(*req.Shape)); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Seats != nil {
		if err := h.floor.SetSeats(id, *req.Seats); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, Ok(h.state()))
}

// DeleteTable removes a table from the floor.
func (h *FloorPlanHandler) DeleteTable(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.floor.DeleteTable(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.state()))
}

// SwitchMode enters or leaves edit mode. Entering requires an admin
// caller; leaving takes a save flag choosing between flush and discard.
func (h *FloorPlanHandler) SwitchMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Editing bool `json:"editing"`
		Save    bool `json:"save"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	var err error
	if req.Editing {
		err = h.floor.EnterEditMode(r.Context(), userID(r))
	} else {
		err = h.floor.ExitEditMode(r.Context(), req.Save)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.state()))
}

// Select records a table click; an empty table_id clears the selection.
func (h *FloorPlanHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableID string `json:"table_id"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	if req.TableID == "" {
		h.floor.DeselectTable()
	} else if err := h.floor.SelectTable(req.TableID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.floor.SelectedTable()))
}

// Gesture feeds one pointer event into the gesture controller. The
// client streams drag-start/drag-move/drag-end (and the resize
// equivalents) with canvas-relative pixel coordinates.
func (h *FloorPlanHandler) Gesture(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action  string  `json:"action"`
		TableID string  `json:"table_id"`
		X       float64 `json:"x"`
		Y       float64 `json:"y"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	var err error
	switch req.Action {
	case "drag-start":
		err = h.floor.BeginDrag(req.TableID, req.X, req.Y)
	case "drag-move":
		err = h.floor.TrackDrag(req.X, req.Y)
	case "drag-end":
		err = h.floor.EndDrag()
	case "resize-start":
		err = h.floor.BeginResize(req.TableID, req.X, req.Y)
	case "resize-move":
		err = h.floor.TrackResize(req.X, req.Y)
	case "resize-end":
		err = h.floor.EndResize()
	default:
		writeJSON(w, http.StatusBadRequest, Fail("unknown gesture action"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.state()))
}
