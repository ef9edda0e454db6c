package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CatalogRecord is one ingredient/material as owned by the document store.
type CatalogRecord struct {
	ID            string    `json:"id"`
	CanonicalCode string    `json:"canonical_code,omitempty"`
	DisplayName   string    `json:"display_name"`
	AltName       string    `json:"alt_name,omitempty"`
	Category      string    `json:"category,omitempty"`
	FunctionTags  []string  `json:"function_tags,omitempty"`
	Benefits      []string  `json:"benefits,omitempty"`
	Supplier      string    `json:"supplier,omitempty"`
	Cost          float64   `json:"cost,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	Description   string    `json:"description,omitempty"`
	Available     bool      `json:"available"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// Validate reports ErrMalformedRecord when identity fields are missing.
func (r CatalogRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return WrapError(ErrMalformedRecord, "validate record", errors.New("empty id"))
	}
	if strings.TrimSpace(r.CanonicalCode) == "" &&
		strings.TrimSpace(r.DisplayName) == "" &&
		strings.TrimSpace(r.AltName) == "" {
		return WrapError(ErrMalformedRecord, "validate record", fmt.Errorf("record %s has no code or name", r.ID))
	}
	return nil
}

// RecordMatch is a document-store hit. Exact is false for substring matches.
type RecordMatch struct {
	Record CatalogRecord
	Exact  bool
}

// RecordChanged is published when a record is written or removed upstream.
type RecordChanged struct {
	RecordID string    `json:"record_id"`
	Deleted  bool      `json:"deleted,omitempty"`
	At       time.Time `json:"at"`
}

// ReindexReport summarizes a batch reindex. Malformed records are skipped,
// never fatal.
type ReindexReport struct {
	Indexed    int      `json:"indexed"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	SkippedIDs []string `json:"skipped_ids,omitempty"`
	FailedIDs  []string `json:"failed_ids,omitempty"`
}
