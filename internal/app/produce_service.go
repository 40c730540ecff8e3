package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"produce-lens/internal/calorie"
	"produce-lens/internal/model"
	"produce-lens/internal/vision"
)

var (
	ErrEmptyUpload     = errors.New("no image uploaded")
	ErrUnsupportedType = errors.New("unsupported file type, upload a JPG, JPEG or PNG image")
	ErrTooLarge        = errors.New("image is too large")
	ErrTooManyPixels   = errors.New("image dimensions are too large")
)

// CaloriesNotFound is shown when enrichment fails.
const CaloriesNotFound = "Sorry ! Calories not found"

var (
	allowedExtensions = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}}
	allowedMIMETypes  = []string{"image/jpeg", "image/png"}
)

type ImageClassifier interface {
	Classify(data []byte) (vision.Prediction, error)
}

type UploadStore interface {
	Save(filename string, data []byte) (string, error)
}

type PredictionPublisher interface {
	Publish(ctx context.Context, prediction model.Prediction) error
}

type ProduceService struct {
	classifier ImageClassifier
	store      UploadStore
	calories   calorie.Lookup
	publisher  PredictionPublisher
	limits     Limits
}

// Limits bounds what Analyze accepts. MaxPixels caps width*height so a small, highly
// compressed file cannot expand into a huge raster.
type Limits struct {
	MaxBytes  int64
	MaxPixels int64
}

const (
	DefaultMaxBytes  = 10 << 20
	DefaultMaxPixels = 40_000_000
)

// Upload is one image submitted by a user.
type Upload struct {
	Filename string
	Data     []byte
}

// Result is what the result page and the JSON API render. CaloriesAttempted is false when
// no calorie lookup is configured.
type Result struct {
	RequestID         string `json:"request_id"`
	Filename          string `json:"filename"`
	Label             string `json:"label"`
	Group             string `json:"group"`
	Calories          string `json:"calories,omitempty"`
	CaloriesFound     bool   `json:"calories_found"`
	CaloriesAttempted bool   `json:"-"`
	Preview           string `json:"-"`
}

// NewProduceService wires the classification flow. calories and publisher may be nil.
func NewProduceService(
	classifier ImageClassifier,
	store UploadStore,
	calories calorie.Lookup,
	publisher PredictionPublisher,
	limits Limits,
) *ProduceService {
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = DefaultMaxBytes
	}
	if limits.MaxPixels <= 0 {
		limits.MaxPixels = DefaultMaxPixels
	}
	return &ProduceService{
		classifier: classifier,
		store:      store,
		calories:   calories,
		publisher:  publisher,
		limits:     limits,
	}
}

func (s *ProduceService) MaxBytes() int64 {
	return s.limits.MaxBytes
}

// Analyze validates and stores the upload, classifies it and enriches the label with calorie
// text. A classification failure returns an error and no result; enrichment failures only
// leave CaloriesFound false.
func (s *ProduceService) Analyze(ctx context.Context, upload Upload) (*Result, error) {
	if err := s.validate(upload); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	logger := slog.With(slog.String("request_id", requestID), slog.String("filename", upload.Filename))

	path, err := s.store.Save(upload.Filename, upload.Data)
	if err != nil {
		return nil, fmt.Errorf("persist upload failed: %w", err)
	}

	start := time.Now()
	prediction, err := s.classifier.Classify(upload.Data)
	if err != nil {
		logger.Warn("classification failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("classify %s: %w", filepath.Base(path), err)
	}
	logger.Info("classified",
		slog.String("label", prediction.Label),
		slog.String("group", prediction.Group),
		slog.Duration("took", time.Since(start)))

	result := &Result{
		RequestID: requestID,
		Filename:  filepath.Base(path),
		Label:     prediction.Label,
		Group:     prediction.Group,
	}

	if s.calories != nil {
		result.CaloriesAttempted = true
		result.Calories, result.CaloriesFound = s.calories.Lookup(ctx, prediction.Label)
	}

	if preview, err := Thumbnail(upload.Data); err != nil {
		logger.Debug("preview failed", slog.String("error", err.Error()))
	} else {
		result.Preview = preview
	}

	s.publish(ctx, logger, result)
	return result, nil
}

func (s *ProduceService) validate(upload Upload) error {
	if len(upload.Data) == 0 {
		return ErrEmptyUpload
	}
	if int64(len(upload.Data)) > s.limits.MaxBytes {
		return fmt.Errorf("%w (max %d MiB)", ErrTooLarge, s.limits.MaxBytes>>20)
	}
	if !HasAllowedExtension(upload.Filename) {
		return ErrUnsupportedType
	}
	if !hasAllowedMIMEType(upload.Data) {
		return ErrUnsupportedType
	}
	return s.checkDimensions(upload.Data)
}

func hasAllowedMIMEType(data []byte) bool {
	detected := mimetype.Detect(data)
	for _, mime := range allowedMIMETypes {
		if detected.Is(mime) {
			return true
		}
	}
	return false
}

// checkDimensions reads only the image header, never the pixel data.
func (s *ProduceService) checkDimensions(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", vision.ErrDecode, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > s.limits.MaxPixels {
		return fmt.Errorf("%w (%dx%d, max %d pixels)", ErrTooManyPixels, cfg.Width, cfg.Height, s.limits.MaxPixels)
	}
	return nil
}

func (s *ProduceService) publish(ctx context.Context, logger *slog.Logger, result *Result) {
	if s.publisher == nil {
		return
	}
	record := model.Prediction{
		RequestID: result.RequestID,
		Filename:  result.Filename,
		Label:     result.Label,
		Group:     result.Group,
		Calories:  result.Calories,
		CreatedAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, record); err != nil {
		logger.Warn("prediction log publish failed", slog.String("error", err.Error()))
	}
}

// HasAllowedExtension reports whether filename ends in .jpg, .jpeg or .png (any case).
func HasAllowedExtension(filename string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}
