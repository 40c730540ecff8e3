package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	appsvc "produce-lens/internal/app"
)

// PageHandler renders the single-page upload form and its result.
type PageHandler struct {
	service *appsvc.ProduceService
	title   string
}

type pageData struct {
	Title            string
	Accept           string
	Result           *appsvc.Result
	CaloriesNotFound string
	Error            string
}

func NewPageHandler(service *appsvc.ProduceService, title string) *PageHandler {
	return &PageHandler{service: service, title: title}
}

// Index shows the empty form.
func (h *PageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", h.data())
}

// Submit classifies the uploaded image and renders the result on the same page.
func (h *PageHandler) Submit(c *gin.Context) {
	limitBody(c, h.service.MaxBytes())
	data := h.data()

	upload, err := readUpload(c, h.service.MaxBytes())
	if err == nil {
		data.Result, err = h.service.Analyze(c.Request.Context(), upload)
	}
	if err != nil {
		status, _, msg := errorStatus(err)
		if status >= 500 {
			slog.Error("page upload failed", slog.String("error", err.Error()))
		}
		data.Error = msg
		c.HTML(status, "index.html", data)
		return
	}

	c.HTML(http.StatusOK, "index.html", data)
}

func (h *PageHandler) data() pageData {
	return pageData{
		Title:            h.title,
		Accept:           ".jpg,.jpeg,.png",
		CaloriesNotFound: appsvc.CaloriesNotFound,
	}
}
