package model

// Direction labels one leg of a measurement between two nodes.
type Direction string

const (
	Forward Direction = "fwd"
	Reverse Direction = "rev"
)

// Sample is a single fabricated latency measurement.
type Sample struct {
	Source    string
	Target    string
	Direction Direction
	Value     float64 // seconds
}
