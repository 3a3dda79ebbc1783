package world

// Rect represents a rectangle in logical canvas pixels.
type Rect struct {
	X, Y          int // Top-left corner position
	Width, Height int // Dimensions of the rectangle
}

// Point is a position in logical canvas pixels. Animation offsets make it fractional.
type Point struct {
	X, Y float64
}

// Add returns p shifted by dx, dy.
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}
