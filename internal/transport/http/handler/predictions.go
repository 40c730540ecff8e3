package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"produce-lens/internal/model"
	"produce-lens/internal/transport/http/response"
)

type PredictionLister interface {
	ListRecent(limit int) ([]model.Prediction, error)
}

// PredictionsHandler exposes the prediction audit log.
type PredictionsHandler struct {
	lister PredictionLister
}

func NewPredictionsHandler(lister PredictionLister) *PredictionsHandler {
	return &PredictionsHandler{lister: lister}
}

func (h *PredictionsHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "limit must be an integer")
		return
	}

	predictions, err := h.lister.ListRecent(limit)
	if err != nil {
		slog.Error("list predictions failed", slog.String("error", err.Error()))
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list predictions failed")
		return
	}
	response.OK(c, gin.H{"predictions": predictions})
}
