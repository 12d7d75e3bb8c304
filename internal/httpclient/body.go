package httpclient

import (
	"compress/gzip"
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
)

// DecodedBody wraps a response body, transparently undoing whatever
// Content-Encoding the server applied. Large full-snapshot files are commonly
// served brotli-compressed; gzip is supported for completeness. Close closes
// the decoder (if any) and the underlying response body.
type DecodedBody struct {
	io.Reader
	underlying io.Closer
	gz         *gzip.Reader
}

func (b *DecodedBody) Close() error {
	if b.gz != nil {
		_ = b.gz.Close()
	}
	return b.underlying.Close()
}

func newDecodedBody(resp *http.Response) (*DecodedBody, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "br":
		return &DecodedBody{Reader: brotli.NewReader(resp.Body), underlying: resp.Body}, nil
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		return &DecodedBody{Reader: gz, underlying: resp.Body, gz: gz}, nil
	default:
		return &DecodedBody{Reader: resp.Body, underlying: resp.Body}, nil
	}
}
