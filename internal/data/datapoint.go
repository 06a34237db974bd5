package data

// Contains data of a Point Cloud Point, namely X,Y,Z coords,
// Intensity and Classification
type Point struct {
	X              float64
	Y              float64
	Z              float64
	Intensity      uint16
	Classification uint8

	// index of the raw record in the source las file
	SourceIndex int
}

// Builds a new Point from the given coordinates, intensity and classification values
func NewPoint(X, Y, Z float64, Intensity uint16, Classification uint8, sourceIndex int) *Point {
	return &Point{
		X:              X,
		Y:              Y,
		Z:              Z,
		Intensity:      Intensity,
		Classification: Classification,
		SourceIndex:    sourceIndex,
	}
}
