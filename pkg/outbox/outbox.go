package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"

	kafkaclient "github.com/freshcart/backend/pkg/kafka"
)

type Record struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"event_id"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at"`
}

// InsertTx writes an outbox row inside the caller's transaction so the event
// commits or rolls back together with the business rows.
func InsertTx(ctx context.Context, tx pgx.Tx, eventID, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO outbox(event_id, topic, key, payload) VALUES ($1, $2, $3, $4)`, eventID, topic, key, data)
	return err
}

func FetchPending(ctx context.Context, pool *pgxpool.Pool, limit int) ([]Record, error) {
	rows, err := pool.Query(ctx, `SELECT id, event_id, topic, key, payload, created_at, sent_at FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &rec.Payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func MarkSent(ctx context.Context, pool *pgxpool.Pool, id int64) error {
	_, err := pool.Exec(ctx, `UPDATE outbox SET sent_at=now() WHERE id=$1`, id)
	return err
}

// Relay drains pending outbox rows into kafka. One relay per process is
// enough; redelivery after a crash between publish and MarkSent is possible,
// so consumers dedupe on event_id.
type Relay struct {
	pool     *pgxpool.Pool
	writer   *kafka.Writer
	log      *slog.Logger
	interval time.Duration
	batch    int
}

func NewRelay(pool *pgxpool.Pool, writer *kafka.Writer, log *slog.Logger, interval time.Duration) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	return &Relay{pool: pool, writer: writer, log: log, interval: interval, batch: 100}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.drain(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("outbox drain failed", slog.Any("err", err))
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	pending, err := FetchPending(ctx, r.pool, r.batch)
	if err != nil {
		return err
	}

	for _, rec := range pending {
		if err := kafkaclient.PublishJSON(ctx, r.writer, rec.Key, rec.Payload); err != nil {
			return err
		}
		if err := MarkSent(ctx, r.pool, rec.ID); err != nil {
			return err
		}
	}
	return nil
}
