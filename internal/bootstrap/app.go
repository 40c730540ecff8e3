package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appsvc "produce-lens/internal/app"
	"produce-lens/internal/cache"
	"produce-lens/internal/calorie"
	"produce-lens/internal/config"
	mysqlClient "produce-lens/internal/platform/mysql"
	rabbitmqClient "produce-lens/internal/platform/rabbitmq"
	redisClient "produce-lens/internal/platform/redis"
	"produce-lens/internal/repository"
	"produce-lens/internal/storage"
	"produce-lens/internal/vision"
	"produce-lens/internal/worker"
)

// App owns every long-lived resource. Optional backends stay nil when disabled.
type App struct {
	Config      *config.Config
	Classifier  *vision.Classifier
	Produce     *appsvc.ProduceService
	Predictions *repository.PredictionRepository

	Redis     *redis.Client
	MySQL     *gorm.DB
	MQConn    *amqp.Connection
	LogWorker *worker.PredictionLogWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	slog.SetDefault(NewLogger(cfg.App.LogLevel))

	a := &App{Config: cfg, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	store, err := storage.NewUploadStore(cfg.Upload.Dir)
	if err != nil {
		return err
	}

	a.Classifier, err = vision.NewClassifier(vision.Options{
		ModelPath:         cfg.Vision.ModelPath,
		ONNXSharedLibPath: cfg.Vision.ONNXSharedLibPath,
	})
	if err != nil {
		return fmt.Errorf("load classifier failed: %w", err)
	}

	var calories calorie.Lookup
	if cfg.Calorie.Enabled {
		calories = calorie.NewSearchScraper(calorie.ScraperConfig{
			BaseURL:     cfg.Calorie.BaseURL,
			ResultClass: cfg.Calorie.ResultClass,
			UserAgent:   cfg.Calorie.UserAgent,
			Timeout:     cfg.CalorieTimeout(),
		})
		if cfg.Redis.Enabled {
			a.Redis, err = redisClient.New(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			calories = cache.NewCalorieCache(a.Redis, calories, cfg.CalorieTTL())
		}
	}

	var publisher appsvc.PredictionPublisher
	if cfg.PredictionLogEnabled() {
		a.MySQL, err = mysqlClient.New(ctx, cfg.MySQLDSN())
		if err != nil {
			return err
		}
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}

		a.Predictions = repository.NewPredictionRepository(a.MySQL)
		a.LogWorker = worker.NewPredictionLogWorker(a.MQConn, a.Predictions, cfg.RabbitMQ.PredictionLogQueue)
		if err := a.LogWorker.Start(ctx); err != nil {
			return fmt.Errorf("start prediction log worker failed: %w", err)
		}
		publisher = rabbitmqClient.NewPredictionPublisher(a.MQConn, cfg.RabbitMQ.PredictionLogQueue)
	}

	a.Produce = appsvc.NewProduceService(a.Classifier, store, calories, publisher, appsvc.Limits{
		MaxBytes:  cfg.MaxUploadBytes(),
		MaxPixels: cfg.MaxUploadPixels(),
	})
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.LogWorker != nil {
		a.LogWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Classifier != nil {
		if err := a.Classifier.Close(); err != nil {
			closeErr = err
		}
	}
	return closeErr
}

// NewLogger returns a text slog logger writing to stderr at the named level.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
