package geometry

// Contains the world coordinates of a single sample or point
type Coordinate struct {
	X float64
	Y float64
	Z float64
}
