package tint

import (
	"image"
	"math"
)

// Point is a position on the horizontal grid in (row, column) pixel units.
type Point struct {
	Row float64
	Col float64
}

// NewPoint creates a point at (row, col).
func NewPoint(row, col float64) Point {
	return Point{
		Row: row,
		Col: col,
	}
}

// Add returns p displaced by v.
func (p Point) Add(v Vector) Point {
	return Point{
		Row: p.Row + v.Row,
		Col: p.Col + v.Col,
	}
}

// Vector is a (row, column) displacement in pixels.
type Vector struct {
	Row float64
	Col float64
}

// NewVector creates a displacement of row rows and col columns.
func NewVector(row, col float64) Vector {
	return Vector{
		Row: row,
		Col: col,
	}
}

// Sub returns v - other.
func (v Vector) Sub(other Vector) Vector {
	return Vector{
		Row: v.Row - other.Row,
		Col: v.Col - other.Col,
	}
}

// Clamp limits both components to [-limit, limit].
func (v Vector) Clamp(limit float64) Vector {
	return Vector{
		Row: clampFloat64(v.Row, -limit, limit),
		Col: clampFloat64(v.Col, -limit, limit),
	}
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.Row-p2.Row, 2) + math.Pow(p1.Col-p2.Col, 2))
}

// newBounds returns the rectangle covering rows [rowMin, rowMax] and columns
// [colMin, colMax] inclusive. image.Rectangle is half-open, X is the column axis.
func newBounds(rowMin, rowMax, colMin, colMax int) image.Rectangle {
	return image.Rect(colMin, rowMin, colMax+1, rowMax+1)
}
