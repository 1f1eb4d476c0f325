package services

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"unicode/utf8"

	"github.com/desertthunder/wlx/internal/shared"
)

var transientText = regexp.MustCompile(`(?i)ABORTED|something went wrong`)

const maxErrorBody = 400

// RemoteRequestError is a failed innertube call. Body holds the response text or a description of the rejection.
type RemoteRequestError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *RemoteRequestError) Error() string {
	body := e.Body
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("youtubei %s failed: %s", e.Path, body)
	}
	return fmt.Sprintf("youtubei %s failed (%d): %s", e.Path, e.StatusCode, body)
}

func (e *RemoteRequestError) Unwrap() error {
	return shared.ErrAPIRequest
}

// Transient reports whether the failure is worth a rescan and retry: a conflict, or an aborted or generic failure
// message from the server.
func (e *RemoteRequestError) Transient() bool {
	return e.StatusCode == http.StatusConflict || transientText.MatchString(e.Body)
}

// IsTransient reports whether err is a transient [RemoteRequestError], or carries a transient message.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var rre *RemoteRequestError
	if errors.As(err, &rre) {
		return rre.Transient()
	}
	return transientText.MatchString(err.Error())
}
