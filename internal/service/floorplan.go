package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ducnt198x/resbarpos/internal/domain"
	"github.com/ducnt198x/resbarpos/internal/repository"
)

// FloorPlanMode gates which interactions are legal.
type FloorPlanMode string

const (
	// ModeLive is the default: selection opens the order action panel,
	// drag/resize are disabled, background refresh is fully active.
	ModeLive FloorPlanMode = "live"
	// ModeEditing enables drag/resize and the table property editor,
	// and suppresses background geometry refresh.
	ModeEditing FloorPlanMode = "editing"
)

// FloorPlanService runs the floor-plan screen: the edit/live mode
// switch, the single-slot gesture controller, table CRUD and the
// background refresh loop over the store's change feed.
//
// Geometry changes are batched: gestures and property edits only mark
// the layout dirty, and ExitEditMode(save=true) flushes the whole
// layout in one write.
type FloorPlanService struct {
	store  repository.Store
	mirror *Mirror
	canvas Bounds
	logger *zap.Logger

	mu        sync.Mutex
	mode      FloorPlanMode
	dirty     bool
	selected  string
	editingID string
	gesture   GestureState
}

// NewFloorPlanService creates the service in live mode.
func NewFloorPlanService(store repository.Store, mirror *Mirror, canvas Bounds, logger *zap.Logger) *FloorPlanService {
	return &FloorPlanService{
		store:  store,
		mirror: mirror,
		canvas: canvas,
		logger: logger,
		mode:   ModeLive,
	}
}

// Mirror exposes the view-model mirror to collaborating services.
func (s *FloorPlanService) Mirror() *Mirror { return s.mirror }

// ListTables returns the current merged snapshot.
func (s *FloorPlanService) ListTables() []domain.TableView {
	return s.mirror.Snapshot()
}

// Mode returns the current interaction mode.
func (s *FloorPlanService) Mode() FloorPlanMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Dirty reports whether unsaved layout changes are pending.
func (s *FloorPlanService) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// SelectedTable returns the currently selected table id, if any.
func (s *FloorPlanService) SelectedTable() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SelectTable records a click on a table. In live mode this opens the
// order action panel for the table; in edit mode it targets the
// property editor instead.
func (s *FloorPlanService) SelectTable(id string) error {
	if _, ok := s.mirror.Find(id); !ok {
		return ErrUnknownTable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeEditing {
		s.editingID = id
	} else {
		s.editingID = ""
		s.selected = id
	}
	return nil
}

// DeselectTable records a click on the background.
func (s *FloorPlanService) DeselectTable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeEditing {
		s.editingID = ""
	} else {
		s.selected = ""
	}
}

// EnterEditMode switches to editing. Only an admin may edit; an
// unknown or unresolvable role fails closed.
func (s *FloorPlanService) EnterEditMode(ctx context.Context, userID string) error {
	user, err := s.store.Users.Get(ctx, userID)
	if err != nil || user.Role != domain.RoleAdmin {
		return ErrNotAdmin
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeEditing
	s.selected = ""
	return nil
}

// ExitEditMode leaves editing. With save=true any dirty layout is
// flushed to the store in a single batch; on failure the service stays
// in edit mode with the dirty state intact so nothing is silently
// lost. With save=false local edits are discarded by a full refetch.
// An in-flight gesture is force-committed first, never left dangling.
func (s *FloorPlanService) ExitEditMode(ctx context.Context, save bool) error {
	s.mu.Lock()
	if s.mode != ModeEditing {
		s.mu.Unlock()
		return nil
	}
	if s.gesture.Active() {
		s.dirty = true
		s.gesture = GestureState{}
	}
	dirty := s.dirty
	s.mu.Unlock()

	if save && dirty {
		if err := s.store.Tables.UpsertAll(ctx, s.mirror.Tables()); err != nil {
			s.logger.Error("Failed to save floor layout", zap.Error(err))
			return fmt.Errorf("failed to save layout: %w", err)
		}
	}

	s.mu.Lock()
	s.dirty = false
	s.mode = ModeLive
	s.editingID = ""
	s.mu.Unlock()

	if !save && dirty {
		// Discarded edits: re-derive state from the store.
		if err := s.mirror.Refresh(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ---- gestures ----

// BeginDrag arms a move gesture on a table. Pointer coordinates are
// canvas-relative pixels.
func (s *FloorPlanService) BeginDrag(id string, pointerX, pointerY float64) error {
	view, ok := s.mirror.Find(id)
	if !ok {
		return ErrUnknownTable
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return ErrNotEditing
	}
	if s.gesture.Active() {
		return ErrGestureActive
	}

	elemX, elemY := PercentToPixel(view.X, view.Y, s.canvas)
	s.gesture = GestureState{
		ActiveID:  id,
		Mode:      GestureMove,
		StartX:    pointerX,
		StartY:    pointerY,
		InitialX:  view.X,
		InitialY:  view.Y,
		InitialW:  view.Width,
		InitialH:  view.Height,
		Container: s.canvas,
		OffsetX:   pointerX - elemX,
		OffsetY:   pointerY - elemY,
	}
	s.editingID = id
	return nil
}

// TrackDrag recomputes the target's position from the current pointer.
// Pure visual update: the new geometry lands in the mirror only, never
// on the wire.
func (s *FloorPlanService) TrackDrag(pointerX, pointerY float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.gesture.Active() || s.gesture.Mode != GestureMove {
		return ErrNoGesture
	}

	g := s.gesture
	px := pointerX - g.OffsetX
	py := pointerY - g.OffsetY
	px, py = ClampToCanvas(px, py, g.InitialW, g.InitialH, g.Container)
	xPercent, yPercent := PixelToPercent(px, py, g.Container)

	s.mirror.SetGeometry(g.ActiveID, xPercent, yPercent, g.InitialW, g.InitialH)
	return nil
}

// EndDrag commits the gesture: the layout is marked dirty and the slot
// returns to idle. Pointer-up always commits; there is no cancel path.
func (s *FloorPlanService) EndDrag() error {
	return s.endGesture(GestureMove)
}

// BeginResize arms a resize gesture from a table's resize handle.
func (s *FloorPlanService) BeginResize(id string, pointerX, pointerY float64) error {
	view, ok := s.mirror.Find(id)
	if !ok {
		return ErrUnknownTable
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return ErrNotEditing
	}
	if s.gesture.Active() {
		return ErrGestureActive
	}

	s.gesture = GestureState{
		ActiveID: id,
		Mode:     GestureResize,
		StartX:   pointerX,
		StartY:   pointerY,
		InitialX: view.X,
		InitialY: view.Y,
		InitialW: view.Width,
		InitialH: view.Height,
	}
	s.editingID = id
	return nil
}

// TrackResize recomputes the target's size from the pointer delta.
func (s *FloorPlanService) TrackResize(pointerX, pointerY float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.gesture.Active() || s.gesture.Mode != GestureResize {
		return ErrNoGesture
	}

	g := s.gesture
	width, height := ResizeFromDelta(g.InitialW, g.InitialH, pointerX-g.StartX, pointerY-g.StartY)
	s.mirror.SetGeometry(g.ActiveID, g.InitialX, g.InitialY, width, height)
	return nil
}

// EndResize commits the resize gesture.
func (s *FloorPlanService) EndResize() error {
	return s.endGesture(GestureResize)
}

func (s *FloorPlanService) endGesture(mode GestureMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.gesture.Active() || s.gesture.Mode != mode {
		return ErrNoGesture
	}
	s.dirty = true
	s.gesture = GestureState{}
	return nil
}

// ---- table CRUD ----

// AddTable creates a table from a template (nil for the default square
// four-seater) at the canvas center. The label is auto-assigned as the
// first free T-n; the row is persisted on the next layout save.
func (s *FloorPlanService) AddTable(template *domain.TableTemplate) (domain.Table, error) {
	s.mu.Lock()
	if s.mode != ModeEditing {
		s.mu.Unlock()
		return domain.Table{}, ErrNotEditing
	}
	s.mu.Unlock()

	views := s.mirror.Snapshot()
	used := make(map[string]bool, len(views))
	for _, v := range views {
		used[strings.ToLower(v.Label)] = true
	}
	next := len(views) + 1
	label := fmt.Sprintf("T-%d", next)
	for used[strings.ToLower(label)] {
		next++
		label = fmt.Sprintf("T-%d", next)
	}

	t := domain.Table{
		ID:     uuid.NewString(),
		Label:  label,
		Shape:  domain.ShapeSquare,
		X:      45,
		Y:      45,
		Width:  100,
		Height: 100,
		Seats:  4,
	}
	if template != nil {
		t.Shape = template.Shape
		t.Width = template.Width
		t.Height = template.Height
		t.Seats = template.Seats
	}

	s.mirror.InsertLocal(t)
	s.mu.Lock()
	s.dirty = true
	s.editingID = t.ID
	s.mu.Unlock()
	return t, nil
}

// RenameTable changes a table's label. Labels are unique across the
// floor, case-insensitively; violations are rejected before anything
// is written.
func (s *FloorPlanService) RenameTable(id, label string) error {
	s.mu.Lock()
	if s.mode != ModeEditing {
		s.mu.Unlock()
		return ErrNotEditing
	}
	s.mu.Unlock()

	label = strings.TrimSpace(label)
	if label == "" {
		return ErrUnknownTable
	}
	for _, v := range s.mirror.Snapshot() {
		if v.ID != id && strings.EqualFold(v.Label, label) {
			return ErrDuplicateLabel
		}
	}
	if !s.mirror.UpdateTable(id, func(t *domain.Table) { t.Label = label }) {
		return ErrUnknownTable
	}
	s.markDirty()
	return nil
}

// ReshapeTable changes a table's outline.
func (s *FloorPlanService) ReshapeTable(id string, shape domain.TableShape) error {
	s.mu.Lock()
	if s.mode != ModeEditing {
		s.mu.Unlock()
		return ErrNotEditing
	}
	s.mu.Unlock()

	if !s.mirror.UpdateTable(id, func(t *domain.Table) { t.Shape = shape }) {
		return ErrUnknownTable
	}
	s.markDirty()
	return nil
}

// SetSeats changes a table's capacity, floored at one seat.
func (s *FloorPlanService) SetSeats(id string, seats int) error {
	s.mu.Lock()
	if s.mode != ModeEditing {
		s.mu.Unlock()
		return ErrNotEditing
	}
	s.mu.Unlock()

	if seats < 1 {
		seats = 1
	}
	if !s.mirror.UpdateTable(id, func(t *domain.Table) { t.Seats = seats }) {
		return ErrUnknownTable
	}
	s.markDirty()
	return nil
}

// DeleteTable removes a table. An occupied table is rejected outright,
// before any remote call. Deletion goes straight to the store (it is
// not batched with the layout save); a table added since the last save
// has no stored row yet, so a missing row counts as deleted.
func (s *FloorPlanService) DeleteTable(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.mode != ModeEditing {
		s.mu.Unlock()
		return ErrNotEditing
	}
	s.mu.Unlock()

	view, ok := s.mirror.Find(id)
	if !ok {
		return ErrUnknownTable
	}
	if view.Occupied() {
		return ErrTableOccupied
	}

	if err := s.store.Tables.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	s.mirror.RemoveLocal(id)

	s.mu.Lock()
	if s.editingID == id {
		s.editingID = ""
	}
	if s.selected == id {
		s.selected = ""
	}
	s.mu.Unlock()
	return nil
}

func (s *FloorPlanService) markDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// ---- background refresh ----

// geometryLocked reports whether table geometry must not be refetched:
// edit mode with unsaved changes pending or a gesture in flight.
func (s *FloorPlanService) geometryLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode == ModeEditing && (s.dirty || s.gesture.Active())
}

// Run subscribes to the store change feed and keeps the mirror fresh
// until ctx is cancelled. Tables notifications are ignored entirely
// while editing (strict lock); orders notifications always land, but
// degrade to an orders-only re-merge while geometry is locked.
func (s *FloorPlanService) Run(ctx context.Context) error {
	if err := s.mirror.Refresh(ctx); err != nil {
		return fmt.Errorf("initial refresh failed: %w", err)
	}

	events, err := s.store.Feed.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to change feed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.handleChange(ctx, ev)
		}
	}
}

func (s *FloorPlanService) handleChange(ctx context.Context, ev repository.ChangeEvent) {
	var err error
	switch ev.Collection {
	case repository.CollectionTables:
		if s.Mode() == ModeEditing {
			return
		}
		err = s.mirror.Refresh(ctx)
	case repository.CollectionOrders, repository.CollectionOrderItems:
		if s.geometryLocked() {
			err = s.mirror.RefreshOrders(ctx)
		} else {
			err = s.mirror.Refresh(ctx)
		}
	default:
		return
	}
	if err != nil {
		s.logger.Warn("Background refresh failed",
			zap.String("collection", ev.Collection),
			zap.Error(err),
		)
	}
}
