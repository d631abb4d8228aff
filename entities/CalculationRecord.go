package entities

import "time"

// CalculationRecord is a client-side log entry of a successful dose calculation.
type CalculationRecord struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	DrugName   string    `json:"drugName"`
	SystemName string    `json:"systemName"`
	Dose       string    `json:"dose"`
	Weight     float64   `json:"weight"`
	Frequency  string    `json:"frequency,omitempty"`
	Route      string    `json:"route,omitempty"`
}
