package view

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// HistorySummary describes the pack current history shown under the chart.
type HistorySummary struct {
	Count  int       `json:"count"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Mean   float64   `json:"mean"`
	StdDev float64   `json:"std_dev"`
	Last   float64   `json:"last"`
	Values []float64 `json:"values"`
}

// Summarize computes statistics over the samples. An empty history yields a
// zero summary.
func Summarize(samples []float64) HistorySummary {
	hs := HistorySummary{Count: len(samples), Values: append([]float64{}, samples...)}
	if len(samples) == 0 {
		return hs
	}
	hs.Min = floats.Min(samples)
	hs.Max = floats.Max(samples)
	hs.Mean = Round(stat.Mean(samples, nil), 2)
	if len(samples) > 1 {
		hs.StdDev = Round(stat.StdDev(samples, nil), 2)
	}
	hs.Last = samples[len(samples)-1]
	return hs
}
