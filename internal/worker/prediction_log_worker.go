package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"produce-lens/internal/model"
	"produce-lens/internal/platform/rabbitmq"
)

// PredictionStore persists prediction records.
type PredictionStore interface {
	Create(prediction *model.Prediction) error
}

// PredictionLogWorker drains the prediction queue into the store.
type PredictionLogWorker struct {
	conn      *amqp.Connection
	store     PredictionStore
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPredictionLogWorker(conn *amqp.Connection, store PredictionStore, queueName string) *PredictionLogWorker {
	return &PredictionLogWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
	}
}

func (w *PredictionLogWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.Handle(d.Body); err != nil {
					slog.Warn("prediction log worker dropped message", slog.String("error", err.Error()))
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// Handle decodes one queued prediction and stores it.
func (w *PredictionLogWorker) Handle(body []byte) error {
	var prediction model.Prediction
	if err := json.Unmarshal(body, &prediction); err != nil {
		return fmt.Errorf("decode prediction failed: %w", err)
	}
	if prediction.RequestID == "" || prediction.Label == "" {
		return fmt.Errorf("prediction missing request id or label")
	}
	prediction.ID = 0
	return w.store.Create(&prediction)
}

func (w *PredictionLogWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
