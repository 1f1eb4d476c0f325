package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/desertthunder/wlx/internal/shared"
)

// HeaderProvider supplies the captured session headers (cookie, authorization and friends) for each request.
type HeaderProvider interface {
	Headers(ctx context.Context) (http.Header, error)
}

// StaticHeaders is a fixed header set.
type StaticHeaders http.Header

func (h StaticHeaders) Headers(context.Context) (http.Header, error) {
	return http.Header(h).Clone(), nil
}

// FileHeaders re-reads a headers file written by `setup youtube` on every request, so a fresh capture is picked
// up without restarting.
type FileHeaders struct {
	Path string
}

func (f FileHeaders) Headers(context.Context) (http.Header, error) {
	return shared.ReadHeadersFile(shared.ExpandPath(f.Path))
}

// Headers managed by the transport or by the client itself.
var skippedHeaders = map[string]struct{}{
	"content-length":           {},
	"content-type":             {},
	"host":                     {},
	"accept-encoding":          {},
	"connection":               {},
	"x-youtube-client-name":    {},
	"x-youtube-client-version": {},
	"x-origin":                 {},
}

func copySessionHeaders(dst, src http.Header) {
	for k, vals := range src {
		if _, skip := skippedHeaders[strings.ToLower(k)]; skip {
			continue
		}
		for _, v := range vals {
			dst.Add(k, v)
		}
	}
}
