// Package publish sends decoded measurements to a RabbitMQ queue as JSON
// messages, one message per measurement.
package publish

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/r3d91ll/tanita/pkg/analysis"
	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/reader"
)

// DefaultQueue is the queue measurements are published to.
const DefaultQueue = "measures_queue"

// AddrEnv names the environment variable consulted when no URL is configured.
const AddrEnv = "RABBITMQ_ADDR"

const publishTimeout = 30 * time.Second

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Message is the JSON body of one published measurement.
type Message struct {
	ID      string             `json:"id"`
	Source  string             `json:"source"`
	Line    int                `json:"line"`
	TakenAt *time.Time         `json:"taken_at,omitempty"`
	Fields  map[string]string  `json:"fields"`
	Numbers map[string]float64 `json:"numbers,omitempty"`
}

// NewMessage builds the message for row. Fields carries every raw value;
// Numbers carries the values that parse as numbers.
func NewMessage(row reader.Row) Message {
	m := Message{
		ID:     uuid.NewString(),
		Source: row.Source,
		Line:   row.Line,
		Fields: row.Record.Fields(),
	}
	if t, ok := analysis.TakenAt(row.Record); ok {
		m.TakenAt = &t
	}
	for _, code := range row.Record.Codes() {
		if v, ok := row.Record.Number(code); ok {
			if m.Numbers == nil {
				m.Numbers = make(map[string]float64)
			}
			m.Numbers[code] = v
		}
	}
	return m
}

// Publisher publishes measurement messages to one queue.
type Publisher struct {
	ch     Channel
	conn   *amqp.Connection
	queue  string
	logger *slog.Logger
}

// ResolveURL returns url, or the RABBITMQ_ADDR environment value when url
// is empty.
func ResolveURL(url string) string {
	if url != "" {
		return url
	}
	return os.Getenv(AddrEnv)
}

// Dial connects to the broker at url and declares queue.
func Dial(url, queue string, logger *slog.Logger) (*Publisher, error) {
	url = ResolveURL(url)
	if url == "" {
		return nil, errors.Export(errors.ErrPublishConnectFailed, "no broker URL configured").
			WithSuggestion("Set publish.url in the config, pass --url, or export " + AddrEnv)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.AttachSuggestions(
			errors.ExportWrap(err, errors.ErrPublishConnectFailed, "failed to connect to the message broker"))
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.ExportWrap(err, errors.ErrPublishConnectFailed, "failed to open a broker channel")
	}

	p, err := New(ch, queue, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// New declares queue on ch and returns a publisher for it. An empty queue
// name means DefaultQueue.
func New(ch Channel, queue string, logger *slog.Logger) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := ch.QueueDeclare(queue, false, false, false, false, nil); err != nil {
		return nil, errors.ExportWrap(err, errors.ErrPublishConnectFailed, "failed to declare queue").
			WithContext("queue", queue)
	}
	return &Publisher{ch: ch, queue: queue, logger: logger.With("queue", queue)}, nil
}

// Queue returns the queue name.
func (p *Publisher) Queue() string {
	return p.queue
}

// Publish sends one message per row and returns how many were sent. It
// stops at the first failure or when ctx is cancelled.
func (p *Publisher) Publish(ctx context.Context, rows []reader.Row) (int, error) {
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		body, err := json.Marshal(NewMessage(row))
		if err != nil {
			return i, errors.ExportWrap(err, errors.ErrPublishFailed, "failed to encode measurement")
		}

		pctx, cancel := context.WithTimeout(ctx, publishTimeout)
		err = p.ch.PublishWithContext(pctx, "", p.queue, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
		cancel()
		if err != nil {
			return i, errors.ExportWrap(err, errors.ErrPublishFailed, "failed to publish measurement").
				WithContext("source", row.Source)
		}
		p.logger.Debug("published measurement", "source", row.Source, "line", row.Line)
	}
	return len(rows), nil
}

// Close closes the channel and, when the publisher dialled it, the
// connection.
func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
