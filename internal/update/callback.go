// Package update implements the C7 update driver: it resolves the server
// manifest, computes a download plan, streams and validates each planned
// file, and applies the result to a persistent store in bounded batches.
package update

import (
	"encoding/json"

	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
)

// CallbackKind discriminates the caller-visible lifecycle events.
type CallbackKind string

const (
	CallbackUpdateStart CallbackKind = "updatestart"
	CallbackFileStart   CallbackKind = "filestart"
	CallbackProgress    CallbackKind = "progress"
	CallbackParseError  CallbackKind = "parseerror"
	CallbackFileEnd     CallbackKind = "fileend"
	CallbackUpdateEnd   CallbackKind = "updateend"
)

// Callback is a single lifecycle event reported to the caller of Run. Only
// the fields relevant to Kind are populated.
type Callback struct {
	Kind   CallbackKind
	Series dictmodel.Series

	// CallbackFileStart
	Version dictmodel.Version

	// CallbackProgress
	FileProgress  float64
	TotalProgress float64

	// CallbackParseError
	Message string
	Record  json.RawMessage
}

// CallbackFunc receives lifecycle events as Run progresses. It may be nil.
type CallbackFunc func(Callback)
