package domain

// TableShape is the rendered outline of a table on the floor plan.
type TableShape string

const (
	ShapeSquare TableShape = "square"
	ShapeRound  TableShape = "round"
	ShapeRect   TableShape = "rect"
)

// Table is a persisted seating unit on the floor plan (tables row).
// X and Y are percentages [0,100] of the containing canvas, top-left
// anchored; Width and Height are pixels.
type Table struct {
	ID     string     `db:"id" json:"id"`
	Label  string     `db:"label" json:"label"`
	Shape  TableShape `db:"shape" json:"shape"`
	X      float64    `db:"x" json:"x"`
	Y      float64    `db:"y" json:"y"`
	Width  float64    `db:"width" json:"width"`
	Height float64    `db:"height" json:"height"`
	Seats  int        `db:"seats" json:"seats"`
}

// TableTemplate is a preset shape/size used when adding a table.
type TableTemplate struct {
	Label  string     `json:"label"`
	Shape  TableShape `json:"shape"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Seats  int        `json:"seats"`
}

// TableTemplates are the presets offered by the editor toolbar.
var TableTemplates = []TableTemplate{
	{Label: "Round (2)", Shape: ShapeRound, Width: 80, Height: 80, Seats: 2},
	{Label: "Square (4)", Shape: ShapeSquare, Width: 100, Height: 100, Seats: 4},
	{Label: "Rect (4)", Shape: ShapeRect, Width: 120, Height: 80, Seats: 4},
	{Label: "Large (6)", Shape: ShapeRect, Width: 160, Height: 90, Seats: 6},
	{Label: "Big Round (8)", Shape: ShapeRound, Width: 140, Height: 140, Seats: 8},
	{Label: "Bar (5)", Shape: ShapeRect, Width: 200, Height: 60, Seats: 5},
}
