package stream

import (
	"context"
	"io"
	"net/http"

	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
	"github.com/jpdictsync/jpdictsync/internal/httpclient"
)

// StreamFile fetches and parses a single planned file, emitting exactly one
// filestart, zero or more record, and exactly one fileend (on success).
// Errors abort iteration with no further events for this file.
func StreamFile(ctx context.Context, client *http.Client, baseURL string, series dictmodel.Series, lang string, spec dictmodel.DownloadFileSpec, emit Emit) error {
	url := FileURL(baseURL, series, lang, spec)

	res, err := httpclient.Fetch(ctx, client, url, httpclient.FetchOptions{})
	if err != nil {
		if derr, ok := err.(*dictmodel.Error); ok {
			switch derr.Code {
			case dictmodel.ErrNotFound:
				return dictmodel.NewURLError(dictmodel.ErrDatabaseFileNotFound, url, derr.Err)
			default:
				return dictmodel.NewURLError(dictmodel.ErrDatabaseFileNotAccessible, url, derr.Err)
			}
		}
		return dictmodel.NewURLError(dictmodel.ErrDatabaseFileNotAccessible, url, err)
	}
	defer res.Body.Close()

	lr := NewLineReader(res.Body)

	headerSeen := false
	for {
		raw, err := lr.Next(ctx, DefaultLineTimeout)
		if err == io.EOF {
			break
		}
		if err != nil {
			return attachURL(err, url)
		}

		if !headerSeen {
			header, herr := parseHeader(raw, spec)
			if herr != nil {
				return attachURL(herr, url)
			}
			headerSeen = true
			if err := emit(Event{Kind: EventFileStart, Header: &header}); err != nil {
				return err
			}
			continue
		}

		if looksLikeHeader(raw) {
			return dictmodel.NewURLError(dictmodel.ErrDatabaseFileHeaderDup, url, nil)
		}

		rec, rerr := parseDataLine(raw, spec.Format)
		if rerr != nil {
			return attachURL(rerr, url)
		}
		if err := emit(Event{Kind: EventRecord, Record: &rec}); err != nil {
			return err
		}
	}

	if !headerSeen {
		return dictmodel.NewURLError(dictmodel.ErrDatabaseFileHeaderMissing, url, nil)
	}
	return emit(Event{Kind: EventFileEnd})
}

func attachURL(err error, url string) error {
	if derr, ok := err.(*dictmodel.Error); ok && derr.URL == "" {
		return dictmodel.NewURLError(derr.Code, url, derr.Err)
	}
	return err
}

// StreamPlan iterates a computed plan's files in order, wrapping them with
// the reset/downloadstart/downloadend framing events. abandonedResume marks
// whether this plan is the reset-promotion outcome of an excessive patch
// gap (plan.WasResumeAbandoned), in which case a reset event precedes
// downloadstart.
func StreamPlan(ctx context.Context, client *http.Client, baseURL string, series dictmodel.Series, lang string, p dictmodel.DownloadPlan, abandonedResume bool, emit Emit) error {
	if abandonedResume {
		if err := emit(Event{Kind: EventReset}); err != nil {
			return err
		}
	}
	if err := emit(Event{Kind: EventDownloadStart, PlannedFiles: len(p.Files)}); err != nil {
		return err
	}

	for _, spec := range p.Files {
		if err := StreamFile(ctx, client, baseURL, series, lang, spec, emit); err != nil {
			return err
		}
	}

	return emit(Event{Kind: EventDownloadEnd})
}
