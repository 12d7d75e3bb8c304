package dictmodel

import "fmt"

// ErrorCode is the machine-readable error taxonomy shared across the version
// resolver, planner, streamer, validator, and update driver.
type ErrorCode string

const (
	ErrVersionFileNotFound      ErrorCode = "VersionFileNotFound"
	ErrVersionFileNotAccessible ErrorCode = "VersionFileNotAccessible"
	ErrVersionFileInvalid       ErrorCode = "VersionFileInvalid"
	ErrMajorVersionNotFound     ErrorCode = "MajorVersionNotFound"

	ErrDatabaseFileNotFound      ErrorCode = "DatabaseFileNotFound"
	ErrDatabaseFileNotAccessible ErrorCode = "DatabaseFileNotAccessible"
	ErrDatabaseFileHeaderMissing ErrorCode = "DatabaseFileHeaderMissing"
	ErrDatabaseFileHeaderDup     ErrorCode = "DatabaseFileHeaderDuplicate"
	ErrDatabaseFileVersionMismatch ErrorCode = "DatabaseFileVersionMismatch"
	ErrDatabaseFileInvalidJSON   ErrorCode = "DatabaseFileInvalidJSON"
	ErrDatabaseFileInvalidRecord ErrorCode = "DatabaseFileInvalidRecord"

	ErrDatabaseTooOld ErrorCode = "DatabaseTooOld"

	ErrTimeout  ErrorCode = "Timeout"
	ErrAborted  ErrorCode = "Aborted"
	ErrNotFound ErrorCode = "NotFound"
	ErrNotAccessible ErrorCode = "NotAccessible"

	ErrQuotaExceeded ErrorCode = "QuotaExceeded"
)

// Error is the single error type used across the sync engine. It carries a
// machine-readable Code, the offending URL (when applicable), and the
// underlying cause.
type Error struct {
	Code ErrorCode
	URL  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.URL != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.URL, e.Err)
	case e.URL != "":
		return fmt.Sprintf("%s: %s", e.Code, e.URL)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error with no URL.
func NewError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}

// NewURLError builds an *Error carrying the offending URL.
func NewURLError(code ErrorCode, url string, err error) *Error {
	return &Error{Code: code, URL: url, Err: err}
}

// Is allows errors.Is(err, dictmodel.CodeError(SomeCode)) comparisons by code
// only (ignoring URL/Err), via a small code-only sentinel wrapper.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Err != nil || t.URL != "" {
		return false
	}
	return e.Code == t.Code
}

// CodeError returns a bare sentinel *Error carrying only a code, suitable for
// use with errors.Is(err, dictmodel.CodeError(dictmodel.ErrTimeout)).
func CodeError(code ErrorCode) *Error {
	return &Error{Code: code}
}
