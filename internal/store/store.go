// Package store defines the C8 persistent-store contract: a target-agnostic
// surface for opening, clearing, batched updating, and version-row
// read/write per series. internal/store/sqlitestore provides the reference
// implementation.
package store

import (
	"encoding/json"

	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
)

// Update is one ordered entry in a batch passed to UpdateSeries.
//
//   - Mode == ModeAdd or ModeChange: Record is the full validated record
//     object (including its identifier field); ID is nil.
//   - Mode == ModeDelete: ID is the raw identifier value; Record is nil.
type Update struct {
	Mode   dictmodel.RecordMode
	Record json.RawMessage
	ID     json.RawMessage
}

// Store is the C8 contract.
type Store interface {
	// Open is idempotent; safe to call multiple times, including
	// concurrently with other Open calls on the same Store.
	Open() error

	// ClearSeries empties series' records and version row atomically.
	ClearSeries(series dictmodel.Series) error

	// UpdateSeries applies updates atomically (all-or-nothing).
	UpdateSeries(series dictmodel.Series, updates []Update) error

	// UpdateDataVersion upserts the version row. It need not be atomic with
	// a preceding UpdateSeries call; it is sufficient that it is written
	// after all records it describes have been applied.
	UpdateDataVersion(series dictmodel.Series, row dictmodel.DataVersionRow) error

	// GetDataVersion reads the version row. ok is false if none exists.
	GetDataVersion(series dictmodel.Series) (row dictmodel.DataVersionRow, ok bool, err error)

	// Destroy closes the store and deletes all series data.
	Destroy() error
}
