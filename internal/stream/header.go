package stream

import (
	"encoding/json"

	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
)

type rawHeader struct {
	Type    string `json:"type"`
	Version struct {
		Major           int    `json:"major"`
		Minor           int    `json:"minor"`
		Patch           int    `json:"patch"`
		DatabaseVersion string `json:"databaseVersion"`
		DateOfCreation  string `json:"dateOfCreation"`
	} `json:"version"`
	Records int    `json:"records"`
	Part    *int   `json:"part"`
	Format  string `json:"format"`
}

// looksLikeHeader cheaply checks whether raw carries type:"header", used to
// detect a duplicate header appearing mid-stream.
func looksLikeHeader(raw json.RawMessage) bool {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Type == "header"
}

// parseHeader decodes and validates raw against the expected file spec. On
// any structural problem it returns ErrDatabaseFileHeaderMissing (the line is
// not a well-formed header); on a field mismatch against spec it returns
// ErrDatabaseFileVersionMismatch.
func parseHeader(raw json.RawMessage, spec dictmodel.DownloadFileSpec) (dictmodel.FileHeader, error) {
	var rh rawHeader
	if err := json.Unmarshal(raw, &rh); err != nil {
		return dictmodel.FileHeader{}, dictmodel.NewError(dictmodel.ErrDatabaseFileHeaderMissing, err)
	}
	if rh.Type != "header" || rh.Records < 0 || (rh.Format != string(dictmodel.FormatFull) && rh.Format != string(dictmodel.FormatPatch)) {
		return dictmodel.FileHeader{}, dictmodel.NewError(dictmodel.ErrDatabaseFileHeaderMissing, nil)
	}

	version := dictmodel.Version{Major: rh.Version.Major, Minor: rh.Version.Minor, Patch: rh.Version.Patch}
	if !version.Equal(spec.Version) {
		return dictmodel.FileHeader{}, dictmodel.NewError(dictmodel.ErrDatabaseFileVersionMismatch, nil)
	}
	if rh.Format != string(spec.Format) {
		return dictmodel.FileHeader{}, dictmodel.NewError(dictmodel.ErrDatabaseFileVersionMismatch, nil)
	}
	if spec.Partitioned() {
		if rh.Part == nil || *rh.Part != spec.Part {
			return dictmodel.FileHeader{}, dictmodel.NewError(dictmodel.ErrDatabaseFileVersionMismatch, nil)
		}
	} else if rh.Part != nil {
		return dictmodel.FileHeader{}, dictmodel.NewError(dictmodel.ErrDatabaseFileVersionMismatch, nil)
	}

	return dictmodel.FileHeader{
		Type:    "header",
		Version: version,
		Part:    rh.Part,
		Format:  dictmodel.FileFormat(rh.Format),
		Records: rh.Records,
	}, nil
}

// parseDataLine interprets a non-header line per spec.md §4.5, given the
// file's declared format.
func parseDataLine(raw json.RawMessage, format dictmodel.FileFormat) (Record, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		// obj == nil covers a line that is valid JSON `null`: it unmarshals
		// without error into a nil map, but is not a record object.
		return Record{}, dictmodel.NewError(dictmodel.ErrDatabaseFileInvalidRecord, nil)
	}

	tag, hasTag := obj["_"]

	if format == dictmodel.FormatFull {
		if hasTag {
			return Record{}, dictmodel.NewError(dictmodel.ErrDatabaseFileInvalidRecord, nil)
		}
		return Record{Mode: dictmodel.ModeAdd, Fields: obj}, nil
	}

	// Patch file.
	if !hasTag {
		return Record{}, dictmodel.NewError(dictmodel.ErrDatabaseFileInvalidRecord, nil)
	}
	var tagStr string
	if err := json.Unmarshal(tag, &tagStr); err != nil {
		return Record{}, dictmodel.NewError(dictmodel.ErrDatabaseFileInvalidRecord, nil)
	}
	var mode dictmodel.RecordMode
	switch tagStr {
	case "+":
		mode = dictmodel.ModeAdd
	case "~":
		mode = dictmodel.ModeChange
	case "-":
		mode = dictmodel.ModeDelete
	default:
		return Record{}, dictmodel.NewError(dictmodel.ErrDatabaseFileInvalidRecord, nil)
	}
	rest := make(map[string]json.RawMessage, len(obj)-1)
	for k, v := range obj {
		if k == "_" {
			continue
		}
		rest[k] = v
	}
	return Record{Mode: mode, Fields: rest}, nil
}
