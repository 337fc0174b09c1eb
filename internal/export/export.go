// Package export builds the downloadable results document.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/LeonardoBeccarini/water_allocation/internal/estimator"
	"github.com/LeonardoBeccarini/water_allocation/internal/optimizer"
)

// ErrNoResults is returned when there is nothing computed to export.
var ErrNoResults = errors.New("no results to export")

const filePrefix = "water-allocation-results-"

// Document is the optimize request/response pair as sent over the wire,
// stamped with the export time.
type Document struct {
	Input     optimizer.WireRequest `json:"input"`
	Results   *optimizer.Result     `json:"results"`
	Estimate  *Estimate             `json:"estimate,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// Estimate optionally carries the estimator run shown next to the optimization.
type Estimate struct {
	Input  estimator.Input             `json:"input"`
	Result *estimator.AllocationResult `json:"result"`
}

// New stamps the document with at (UTC). est may be nil.
func New(in optimizer.WireRequest, res *optimizer.Result, est *Estimate, at time.Time) (Document, error) {
	if !hasResults(res) {
		return Document{}, ErrNoResults
	}
	return Document{Input: in, Results: res, Estimate: est, Timestamp: at.UTC()}, nil
}

func hasResults(res *optimizer.Result) bool {
	return res != nil && res.Allocations != nil
}

// FileName is water-allocation-results-YYYY-MM-DD.json for the document date.
func (d Document) FileName() string {
	return FileName(d.Timestamp)
}

func FileName(t time.Time) string {
	return filePrefix + t.UTC().Format(time.DateOnly) + ".json"
}

// Write emits the document as indented JSON.
func (d Document) Write(w io.Writer) error {
	if !hasResults(d.Results) {
		return ErrNoResults
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}
