package handlers

import (
	"net/http"

	apperrors "github.com/reputebot/reputebot/internal/errors"
)

// ErrorResponder writes err to w as an HTTP error response.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

var errorResponder ErrorResponder = apperrors.RespondWithError

// SetErrorResponder installs the server's error writer. Nil restores the
// default envelope responder.
func SetErrorResponder(fn ErrorResponder) {
	if fn == nil {
		fn = apperrors.RespondWithError
	}
	errorResponder = fn
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	errorResponder(w, r, err)
}
