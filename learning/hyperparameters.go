// Package learning implements the reference template trainer: it turns one
// canonical image into feature responses, edge factors and their graph.
package learning

// Orientations is the number of edge orientation bins a feature can have
const Orientations = 8

// HyperParameters of feature extraction and template building
type HyperParameters struct {
	PerturbFactor float64 // how far two connected features may move relative to their distance
	Threshold     int     // minimal gradient magnitude of a feature
	Suppression   int     // no two features closer than this (chebyshev)
	Neighbors     int     // edges per feature to its nearest neighbors
}

// Default returns the hyperparameters used by the experiment driver
func Default() HyperParameters {
	return HyperParameters{
		PerturbFactor: 2.0,
		Threshold:     96,
		Suppression:   4,
		Neighbors:     3,
	}
}

func (h HyperParameters) withDefaults() HyperParameters {
	d := Default()
	if h.PerturbFactor <= 0 {
		h.PerturbFactor = d.PerturbFactor
	}
	if h.Threshold <= 0 {
		h.Threshold = d.Threshold
	}
	if h.Suppression <= 0 {
		h.Suppression = d.Suppression
	}
	if h.Neighbors <= 0 {
		h.Neighbors = d.Neighbors
	}
	return h
}
