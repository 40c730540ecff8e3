package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	appsvc "produce-lens/internal/app"
	"produce-lens/internal/transport/http/response"
)

// ClassifyHandler serves the JSON classification API.
type ClassifyHandler struct {
	service *appsvc.ProduceService
}

func NewClassifyHandler(service *appsvc.ProduceService) *ClassifyHandler {
	return &ClassifyHandler{service: service}
}

// Classify accepts a multipart form with "image" and returns label, group and calories.
func (h *ClassifyHandler) Classify(c *gin.Context) {
	limitBody(c, h.service.MaxBytes())
	upload, err := readUpload(c, h.service.MaxBytes())
	if err == nil {
		var result *appsvc.Result
		result, err = h.service.Analyze(c.Request.Context(), upload)
		if err == nil {
			response.OK(c, gin.H{
				"request_id":     result.RequestID,
				"label":          result.Label,
				"group":          result.Group,
				"calories":       result.Calories,
				"calories_found": result.CaloriesFound,
			})
			return
		}
	}

	status, code, msg := errorStatus(err)
	if status >= 500 {
		slog.Error("classify request failed", slog.String("error", err.Error()))
	}
	response.Error(c, status, code, msg)
}
