package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
	"github.com/noah-isme/classroom-api/pkg/i18n"
	"github.com/noah-isme/classroom-api/pkg/observability"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, Envelope{Data: data, Meta: meta})
}

// Message sends data together with a human readable (already localised) message.
func Message(c *gin.Context, status int, data interface{}, message string) {
	var meta map[string]interface{}
	if message != "" {
		meta = map[string]interface{}{"message": message}
	}
	JSON(c, status, data, meta)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}, message string) {
	Message(c, http.StatusCreated, data, message)
}

// Error sends an error response converting the error to the common structure.
// Keyed messages and validation details are translated into the request
// language. Server side failures are reported to Sentry; their cause never
// leaves the process.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		observability.CaptureErr(err)
		_ = c.Error(err)
	}
	if appErr.Key != "" {
		if msg := i18n.T(c, appErr.Key); msg != appErr.Key {
			appErr = appErrors.Clone(appErr, msg)
		}
	}
	if details := i18n.Details(c, err); len(details) > 0 {
		appErr = appErrors.WithDetails(appErr, details)
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.AbortWithStatusJSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
