package models

import "time"

// Series is the raw decoder output: two parallel sequences in the order read from the file.
type Series struct {
	RecordPath string
	Times      []time.Time
	Values     []float64
}

// Sample is a single (timestamp, value) pair of a decoded series.
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// SeriesSummary holds aggregate statistics of a converted series.
type SeriesSummary struct {
	Count int       `json:"count"`
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	Mean  float64   `json:"mean"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
