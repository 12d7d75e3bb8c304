package update

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
	"github.com/jpdictsync/jpdictsync/internal/metrics"
	"github.com/jpdictsync/jpdictsync/internal/plan"
	"github.com/jpdictsync/jpdictsync/internal/store"
	"github.com/jpdictsync/jpdictsync/internal/stream"
	"github.com/jpdictsync/jpdictsync/internal/validate"
	"github.com/jpdictsync/jpdictsync/internal/version"
)

// DefaultBatchSize is the mid-range of the reference 1000-4000 batch-size
// guidance: large enough to amortise store transaction cost, small enough to
// keep memory and progress-visibility bounded.
const DefaultBatchSize = 2000

// DefaultProgressEpsilon is the minimum totalProgress delta between two
// mid-file progress callbacks.
const DefaultProgressEpsilon = 0.02

// Request configures one Update run for a single series.
type Request struct {
	BaseURL      string
	Series       dictmodel.Series
	MajorVersion int
	Lang         string

	// CurrentVersion is what's already on disk; nil means empty.
	CurrentVersion *dictmodel.CurrentVersion

	Store    store.Store
	Callback CallbackFunc

	// Client overrides the HTTP client (nil uses the version/stream default).
	Client *http.Client
	// ForceFetch bypasses the manifest cache.
	ForceFetch bool
	// BatchSize overrides DefaultBatchSize when > 0.
	BatchSize int
	// ProgressEpsilon overrides DefaultProgressEpsilon when > 0.
	ProgressEpsilon float64

	// Metrics, if non-nil, receives the A3 Prometheus observations.
	Metrics *metrics.Metrics
}

// Run drives one series from Request.CurrentVersion to the server's latest
// published version: resolve manifest, compute plan, stream and validate
// each file, batch the result into the store, and commit version rows. It
// returns when the plan is fully applied or fails; every error other than a
// per-record validation failure aborts the run, and no version row is
// written for a file that did not complete.
func Run(ctx context.Context, req Request) error {
	if req.CurrentVersion == nil {
		if err := req.Store.ClearSeries(req.Series); err != nil {
			return err
		}
	}

	latest, err := version.GetVersionInfo(ctx, req.BaseURL, req.Series, req.MajorVersion, req.Lang,
		version.Options{ForceFetch: req.ForceFetch, Client: req.Client})
	if err != nil {
		req.observeManifestFetch("error")
		return err
	}
	req.observeManifestFetch("hit")

	p, err := plan.Compute(req.CurrentVersion, latest)
	if err != nil {
		return err
	}
	if p.Empty() {
		return nil
	}

	d := &driver{
		req:       req,
		latest:    latest,
		batchSize: req.effectiveBatchSize(),
		epsilon:   req.effectiveEpsilon(),
	}

	abandoned := plan.WasResumeAbandoned(req.CurrentVersion, latest)
	err = stream.StreamPlan(ctx, req.Client, req.BaseURL, req.Series, req.Lang, p, abandoned, d.handle)
	if err != nil {
		log.Printf("update[%s]: aborted: %v", req.Series, err)
		return err
	}
	return nil
}

func (r Request) effectiveBatchSize() int {
	if r.BatchSize > 0 {
		return r.BatchSize
	}
	return DefaultBatchSize
}

func (r Request) effectiveEpsilon() float64 {
	if r.ProgressEpsilon > 0 {
		return r.ProgressEpsilon
	}
	return DefaultProgressEpsilon
}

func (r Request) observeManifestFetch(result string) {
	if r.Metrics != nil {
		r.Metrics.ManifestFetchTotal.WithLabelValues(result).Inc()
	}
}

func (r Request) emit(cb Callback) {
	cb.Series = r.Series
	if r.Callback != nil {
		r.Callback(cb)
	}
}

// driver owns the mutable counters for one Run call; it is not safe for
// concurrent use (the pipeline is single-threaded cooperative per spec.md §5).
type driver struct {
	req       Request
	latest    dictmodel.ManifestEntry
	batchSize int
	epsilon   float64

	totalFiles    int
	currentFile   int
	currentRecord int
	fileRecords   int // header.Records for the in-flight file
	fileVersion   dictmodel.Version
	filePart      *int

	lastReportedTotalProgress float64
	batch                     []store.Update
}

func (d *driver) handle(e stream.Event) error {
	switch e.Kind {
	case stream.EventReset:
		return d.req.Store.ClearSeries(d.req.Series)

	case stream.EventDownloadStart:
		d.totalFiles = e.PlannedFiles
		if d.req.Metrics != nil {
			d.req.Metrics.SyncProgressRatio.WithLabelValues(string(d.req.Series)).Set(0)
		}
		d.req.emit(Callback{Kind: CallbackUpdateStart})
		return nil

	case stream.EventFileStart:
		d.currentFile++
		d.currentRecord = 0
		d.fileRecords = e.Header.Records
		d.fileVersion = e.Header.Version
		d.filePart = e.Header.Part
		d.req.emit(Callback{Kind: CallbackFileStart, Version: d.fileVersion})
		if d.currentFile == 1 {
			// The update-level "0 progress" baseline is reported once,
			// against the first file, so subscribers never wait through a
			// whole file with no progress event at all.
			d.req.emit(Callback{Kind: CallbackProgress, FileProgress: 0, TotalProgress: 0})
		}
		return nil

	case stream.EventRecord:
		return d.handleRecord(e.Record)

	case stream.EventFileEnd:
		return d.handleFileEnd()

	case stream.EventDownloadEnd:
		d.req.emit(Callback{Kind: CallbackUpdateEnd})
		return nil

	default:
		return nil
	}
}

func (d *driver) handleRecord(rec *stream.Record) error {
	defer func() { d.currentRecord++ }()

	if d.req.Metrics != nil {
		d.req.Metrics.RecordsStreamedTotal.WithLabelValues(string(d.req.Series), string(rec.Mode)).Inc()
	}

	switch rec.Mode {
	case dictmodel.ModeDelete:
		id, err := validate.ValidateDelete(d.req.Series, rec.Fields)
		if err != nil {
			d.reportParseError(err, rec.Fields)
			return d.maybeReportProgress()
		}
		d.queue(store.Update{Mode: dictmodel.ModeDelete, ID: id})

	default: // ModeAdd, ModeChange
		if err := validate.ValidateAddOrChange(d.req.Series, rec.Fields); err != nil {
			d.reportParseError(err, rec.Fields)
			return d.maybeReportProgress()
		}
		raw, err := json.Marshal(rec.Fields)
		if err != nil {
			return err
		}
		d.queue(store.Update{Mode: rec.Mode, Record: raw})
	}

	if len(d.batch) >= d.batchSize {
		if err := d.flush(); err != nil {
			return err
		}
	}
	return d.maybeReportProgress()
}

func (d *driver) queue(u store.Update) {
	d.batch = append(d.batch, u)
}

func (d *driver) flush() error {
	if len(d.batch) == 0 {
		return nil
	}
	start := time.Now()
	err := d.req.Store.UpdateSeries(d.req.Series, d.batch)
	if d.req.Metrics != nil {
		d.req.Metrics.BatchFlushSeconds.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return err
	}
	if d.req.Metrics != nil {
		for _, u := range d.batch {
			d.req.Metrics.RecordsAppliedTotal.WithLabelValues(string(d.req.Series), string(u.Mode)).Inc()
		}
	}
	d.batch = d.batch[:0]
	return nil
}

func (d *driver) reportParseError(err error, record map[string]json.RawMessage) {
	raw, merr := json.Marshal(record)
	if merr != nil {
		raw = nil
	}
	if d.req.Metrics != nil {
		d.req.Metrics.ParseErrorsTotal.WithLabelValues(string(d.req.Series)).Inc()
	}
	log.Printf("update[%s]: parse error: %v", d.req.Series, err)
	d.req.emit(Callback{Kind: CallbackParseError, Message: err.Error(), Record: raw})
}

func (d *driver) maybeReportProgress() error {
	fileProgress := 1.0
	if d.fileRecords > 0 {
		fileProgress = float64(d.currentRecord+1) / float64(d.fileRecords)
		if fileProgress > 1 {
			fileProgress = 1
		}
	}
	totalProgress := d.totalProgress(fileProgress)
	if totalProgress-d.lastReportedTotalProgress <= d.epsilon {
		return nil
	}
	d.lastReportedTotalProgress = totalProgress
	if d.req.Metrics != nil {
		d.req.Metrics.SyncProgressRatio.WithLabelValues(string(d.req.Series)).Set(totalProgress)
	}
	d.req.emit(Callback{Kind: CallbackProgress, FileProgress: fileProgress, TotalProgress: totalProgress})
	return nil
}

func (d *driver) totalProgress(fileProgress float64) float64 {
	if d.totalFiles == 0 {
		return 0
	}
	return (float64(d.currentFile-1) + fileProgress) / float64(d.totalFiles)
}

func (d *driver) handleFileEnd() error {
	if err := d.flush(); err != nil {
		return err
	}

	row := dictmodel.DataVersionRow{
		Version:         d.fileVersion,
		Lang:            d.req.Lang,
		DatabaseVersion: d.latest.DatabaseVersion,
		DateOfCreation:  d.latest.DateOfCreation,
	}
	// PartInfo is dropped once the final part of a partitioned snapshot has
	// landed; it is carried otherwise so a crashed resume can pick up where
	// this file left off.
	if d.filePart != nil {
		part := *d.filePart
		if part < d.latest.Parts {
			row.PartInfo = &dictmodel.PartInfo{Part: part, Parts: d.latest.Parts}
		}
	}

	if err := d.req.Store.UpdateDataVersion(d.req.Series, row); err != nil {
		return err
	}

	if d.req.Metrics != nil {
		d.req.Metrics.FilesTotal.Inc()
	}

	totalProgress := d.totalProgress(1)
	d.lastReportedTotalProgress = totalProgress
	if d.req.Metrics != nil {
		d.req.Metrics.SyncProgressRatio.WithLabelValues(string(d.req.Series)).Set(totalProgress)
	}
	d.req.emit(Callback{Kind: CallbackProgress, FileProgress: 1, TotalProgress: totalProgress})
	d.req.emit(Callback{Kind: CallbackFileEnd})
	return nil
}
