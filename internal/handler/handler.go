// Package handler holds the pieces shared by the route handlers.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Root describes the API.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to BharathMedicare API",
		"version": Version,
		"endpoints": gin.H{
			"auth":     "/api/auth",
			"users":    "/api/users",
			"patients": "/api/patients",
			"records":  "/api/records",
			"access":   "/api/access",
			"admin":    "/api/admin",
		},
	})
}

func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, NewErrorResponse("Endpoint not found"))
}

func NoMethod(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, NewErrorResponse("Method not allowed for this endpoint"))
}

// ParamID parses the :id path parameter. An id that is not a uuid cannot
// name anything, so it reports resource as not found.
func ParamID(c *gin.Context, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.NotFound(resource, err)
	}
	return id, nil
}

// TargetPatient resolves an optional patient_id value. A patient may only
// name themself, so anything else they send, parseable or not, is reported
// with foreign. For other roles a malformed id names no existing patient.
func TargetPatient(actor model.Actor, raw, foreign string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if actor.Role == model.RolePatient && (err != nil || !actor.Owns(id)) {
		return nil, apperrors.Forbidden(foreign)
	}
	if err != nil {
		return nil, apperrors.NotFound("Patient", err)
	}
	return &id, nil
}

var (
	ErrNoFile         = errors.New("no file in form")
	ErrNoFileName     = errors.New("file has no name")
	ErrBodyTooLarge   = errors.New("request body over limit")
	errUnreadableFile = errors.New("unreadable upload")
)

// Upload is one file read from a multipart form.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ReadFormFile reads the whole file sent under field.
func ReadFormFile(c *gin.Context, field string) (*Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errors.Join(ErrBodyTooLarge, err)
		}
		return nil, ErrNoFile
	}
	if fh.Filename == "" {
		return nil, ErrNoFileName
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.Join(errUnreadableFile, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Join(errUnreadableFile, err)
	}
	return &Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// UploadError maps a ReadFormFile failure to the client message for a
// missing file.
func UploadError(err error, missing string) error {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return apperrors.TooLarge(err)
	case errors.Is(err, ErrNoFile):
		return apperrors.BadRequest(missing, err)
	case errors.Is(err, ErrNoFileName):
		return apperrors.BadRequest("No file selected", err)
	default:
		return apperrors.Internal(err)
	}
}
