package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	appsvc "produce-lens/internal/app"
	"produce-lens/internal/model"
	"produce-lens/internal/transport/http/response"
	"produce-lens/internal/vision"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLister struct {
	rows      []model.Prediction
	err       error
	lastLimit int
}

func (l *stubLister) ListRecent(limit int) ([]model.Prediction, error) {
	l.lastLimit = limit
	return l.rows, l.err
}

func listRequest(h *PredictionsHandler, query string) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/predictions", h.List)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predictions"+query, nil))
	return w
}

func TestPredictionsList(t *testing.T) {
	lister := &stubLister{rows: []model.Prediction{{RequestID: "r1", Label: "Apple", Group: "Fruits"}}}
	w := listRequest(NewPredictionsHandler(lister), "?limit=5")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if lister.lastLimit != 5 {
		t.Errorf("limit = %d", lister.lastLimit)
	}
	var resp struct {
		Data struct {
			Predictions []model.Prediction `json:"predictions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Predictions) != 1 || resp.Data.Predictions[0].Label != "Apple" {
		t.Errorf("predictions = %+v", resp.Data.Predictions)
	}
}

func TestPredictionsListDefaultLimit(t *testing.T) {
	lister := &stubLister{}
	listRequest(NewPredictionsHandler(lister), "")
	if lister.lastLimit != 50 {
		t.Errorf("limit = %d", lister.lastLimit)
	}
}

func TestPredictionsListErrors(t *testing.T) {
	w := listRequest(NewPredictionsHandler(&stubLister{}), "?limit=abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}

	w = listRequest(NewPredictionsHandler(&stubLister{err: errors.New("db down")}), "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("store failure status = %d", w.Code)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err      error
		wantHTTP int
		wantCode int
	}{
		{appsvc.ErrEmptyUpload, http.StatusBadRequest, response.CodeEmptyUpload},
		{appsvc.ErrUnsupportedType, http.StatusUnsupportedMediaType, response.CodeUnsupportedType},
		{fmt.Errorf("%w (max 10 MiB)", appsvc.ErrTooLarge), http.StatusRequestEntityTooLarge, response.CodeTooLarge},
		{fmt.Errorf("%w (40000x40000)", appsvc.ErrTooManyPixels), http.StatusRequestEntityTooLarge, response.CodeTooManyPixels},
		{fmt.Errorf("classify a.png: %w", vision.ErrDecode), http.StatusUnprocessableEntity, response.CodeUndecodable},
		{errors.New("onnx run failed"), http.StatusInternalServerError, response.CodeInternalServer},
	}
	for _, tt := range tests {
		status, code, msg := errorStatus(tt.err)
		if status != tt.wantHTTP || code != tt.wantCode {
			t.Errorf("errorStatus(%v) = %d/%d", tt.err, status, code)
		}
		if msg == "" {
			t.Errorf("errorStatus(%v) has no message", tt.err)
		}
	}
}
