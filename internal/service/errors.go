package service

import "errors"

// Validation errors are rejected synchronously, before any remote call.
var (
	ErrNotAdmin         = errors.New("only an admin can edit the floor layout")
	ErrNotEditing       = errors.New("not in edit mode")
	ErrUnknownTable     = errors.New("unknown table")
	ErrDuplicateLabel   = errors.New("a table with this label already exists")
	ErrTableOccupied    = errors.New("cannot delete an occupied table")
	ErrEmptyCart        = errors.New("cannot confirm an empty order")
	ErrNoActiveOrder    = errors.New("table has no active order")
	ErrTargetOccupied   = errors.New("target table already has an order")
	ErrTargetHasNoOrder = errors.New("target table has no order to merge into")
	ErrSoldOut          = errors.New("menu item is sold out")
	ErrUnknownMenuItem  = errors.New("unknown menu item")
	ErrNoCart           = errors.New("no order editor open for this table")
	ErrGestureActive    = errors.New("another gesture is already active")
	ErrNoGesture        = errors.New("no gesture is active")
	ErrOrderFinished    = errors.New("order is already in a terminal state")
)
