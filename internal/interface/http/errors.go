package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/petlovers/petlovers-api/internal/domain/apperror"
	"github.com/petlovers/petlovers-api/pkg/response"
)

// errorBody is the "error" member of a failed response.
type errorBody struct {
	Kind      apperror.Kind `json:"kind"`
	Messages  []string      `json:"messages,omitempty"`
	Current   string        `json:"currentStatus,omitempty"`
	Attempted string        `json:"attemptedAction,omitempty"`
}

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindConflict, apperror.KindInvalidStateTransition:
		return http.StatusConflict
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError writes err as an error envelope. Internal causes are logged and
// never leave the process.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		ae = apperror.Internal(err)
	}
	if ae.Kind == apperror.KindInternal {
		if logger != nil {
			logger.WithError(errors.Unwrap(ae)).WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.FullPath(),
			}).Error("request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, ae.Error(), errorBody{Kind: ae.Kind})
		return
	}
	body := errorBody{Kind: ae.Kind, Messages: ae.Messages}
	if ae.Kind == apperror.KindInvalidStateTransition {
		body.Current = ae.Current
		body.Attempted = ae.Attempted
	}
	response.Error[any](c, StatusFor(ae.Kind), ae.Error(), body)
}

func userIDFrom(c *gin.Context) (string, bool) {
	uid := c.GetString("userID")
	if uid == "" {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return "", false
	}
	return uid, true
}
