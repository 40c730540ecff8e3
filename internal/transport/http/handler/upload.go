package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appsvc "produce-lens/internal/app"
	"produce-lens/internal/transport/http/response"
	"produce-lens/internal/vision"
)

// FormField is the multipart field carrying the image for both the page and the API.
const FormField = "image"

// readUpload pulls the image out of the multipart form, refusing anything over maxBytes.
func readUpload(c *gin.Context, maxBytes int64) (appsvc.Upload, error) {
	file, err := c.FormFile(FormField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return appsvc.Upload{}, appsvc.ErrTooLarge
		}
		return appsvc.Upload{}, appsvc.ErrEmptyUpload
	}
	if file.Size > maxBytes {
		return appsvc.Upload{}, appsvc.ErrTooLarge
	}
	if !appsvc.HasAllowedExtension(file.Filename) {
		return appsvc.Upload{}, appsvc.ErrUnsupportedType
	}

	f, err := file.Open()
	if err != nil {
		return appsvc.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return appsvc.Upload{}, err
	}
	return appsvc.Upload{Filename: file.Filename, Data: data}, nil
}

// limitBody caps the request body a little above the upload limit to leave room for the
// multipart envelope.
func limitBody(c *gin.Context, maxBytes int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)
}

// errorStatus maps flow errors to an HTTP status, envelope code and user-facing text.
func errorStatus(err error) (int, int, string) {
	switch {
	case errors.Is(err, appsvc.ErrEmptyUpload):
		return http.StatusBadRequest, response.CodeEmptyUpload, "Please upload an image (form field 'image')."
	case errors.Is(err, appsvc.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, response.CodeUnsupportedType, err.Error()
	case errors.Is(err, appsvc.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, response.CodeTooLarge, err.Error()
	case errors.Is(err, appsvc.ErrTooManyPixels):
		return http.StatusRequestEntityTooLarge, response.CodeTooManyPixels, err.Error()
	case errors.Is(err, vision.ErrDecode):
		return http.StatusUnprocessableEntity, response.CodeUndecodable, "The image could not be read. Upload a valid JPG or PNG file."
	default:
		return http.StatusInternalServerError, response.CodeInternalServer, "Classification failed, please try again."
	}
}
