package model

// Path labels which replay a trajectory came from.
// Keep these values stable; they are written to CSV and the result store.
type Path string

const (
	PathNoDeviation Path = "NO_DEVIATION"
	PathDeviation   Path = "DEVIATION"
)
