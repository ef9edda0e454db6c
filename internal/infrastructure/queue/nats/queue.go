package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/infrastructure/resilience"
)

const (
	DefaultSubject = "catalog.records.changed"
	workersQueue   = "indexers"
)

// Queue carries RecordChanged events. Subscribers share one queue group so
// each event is reindexed by a single worker.
type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(subject) == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(
		url,
		nats.Name("ingredient-search"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishRecordChanged(ctx context.Context, event domain.RecordChanged) error {
	if strings.TrimSpace(event.RecordID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "nats publish", errors.New("empty record id"))
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, data); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapUnavailableIfNeeded(err)
	}
	return nil
}

// SubscribeRecordChanged blocks until ctx is done, then drains the
// subscription. Handler errors are logged; the event is not redelivered.
func (q *Queue) SubscribeRecordChanged(ctx context.Context, handler func(context.Context, domain.RecordChanged) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workersQueue, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		event, err := decodeEvent(msg.Data)
		if err != nil {
			q.logger.Error("record_event_decode_failed", "error", err, "payload", string(msg.Data))
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, event); err != nil {
			q.logger.Error("record_event_handler_failed", "record_id", event.RecordID, "deleted", event.Deleted, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func encodeEvent(event domain.RecordChanged) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal record event: %w", err)
	}
	return data, nil
}

// decodeEvent also accepts a bare record id, the format older publishers use.
func decodeEvent(data []byte) (domain.RecordChanged, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return domain.RecordChanged{}, domain.WrapError(domain.ErrInvalidInput, "decode record event", errors.New("empty payload"))
	}
	if !strings.HasPrefix(raw, "{") {
		return domain.RecordChanged{RecordID: raw}, nil
	}
	var event domain.RecordChanged
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return domain.RecordChanged{}, domain.WrapError(domain.ErrInvalidInput, "decode record event", err)
	}
	if strings.TrimSpace(event.RecordID) == "" {
		return domain.RecordChanged{}, domain.WrapError(domain.ErrInvalidInput, "decode record event", errors.New("empty record id"))
	}
	return event, nil
}
