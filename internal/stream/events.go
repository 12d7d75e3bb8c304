package stream

import (
	"encoding/json"

	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
)

// EventKind discriminates the caller-visible event stream per spec.md §4.5's
// per-file sequence and the plan-level reset/downloadstart/downloadend framing.
type EventKind string

// There is no progress event kind: per-record-fraction progress is owned by
// the update driver, which derives it from EventRecord counts against the
// file header's Records total and the plan's file count; the streamer itself
// stays a thin framing layer and does not compute or throttle fractions.
const (
	EventReset         EventKind = "reset"
	EventDownloadStart EventKind = "downloadstart"
	EventFileStart     EventKind = "filestart"
	EventRecord        EventKind = "record"
	EventFileEnd       EventKind = "fileend"
	EventDownloadEnd   EventKind = "downloadend"
)

// Record is a single parsed data-file record together with its resolved mode.
type Record struct {
	Mode   dictmodel.RecordMode
	Fields map[string]json.RawMessage
}

// Event is the single type carried through the emit callback; only the
// fields relevant to Kind are populated.
type Event struct {
	Kind EventKind

	// EventDownloadStart
	PlannedFiles int

	// EventFileStart
	Header *dictmodel.FileHeader

	// EventRecord
	Record *Record
}

// Emit is the callback signature a caller supplies to StreamFile/StreamPlan.
// A non-nil return aborts iteration immediately (e.g. a store-flush failure,
// which must terminate the whole update even though per-record validation
// errors are recovered locally by the caller without returning one).
type Emit func(Event) error
