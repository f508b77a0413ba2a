package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alltechdigital/leads-api/pkg/logging"
)

type outboxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// OutboxEntry is one queued notification email, written in the same
// transaction as its lead.
type OutboxEntry struct {
	ID        uuid.UUID
	LeadID    string
	Kind      string
	Recipient string
	Payload   json.RawMessage
	Attempts  int
	CreatedAt time.Time
}

// OutboxHandler delivers one entry.
type OutboxHandler interface {
	HandleOutboxEntry(ctx context.Context, entry OutboxEntry) error
}

// OutboxStore reads and settles pending notification rows.
type OutboxStore struct {
	db outboxDB
}

func NewOutboxStore(db outboxDB) *OutboxStore {
	if db == nil {
		panic("notify: database required")
	}
	return &OutboxStore{db: db}
}

// FetchPending returns undelivered entries in insertion order, skipping those
// that already exhausted their attempts.
func (s *OutboxStore) FetchPending(ctx context.Context, limit int32) ([]OutboxEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, lead_id, kind, recipient, payload, attempts, created_at
		FROM notification_outbox
		WHERE delivered_at IS NULL AND attempts < 5
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("notify: fetch pending: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var entry OutboxEntry
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.LeadID, &entry.Kind, &entry.Recipient, &payload, &entry.Attempts, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("notify: scan outbox: %w", err)
		}
		entry.Payload = append([]byte(nil), payload...)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *OutboxStore) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	ct, err := s.db.Exec(ctx, `
		UPDATE notification_outbox
		SET delivered_at = now()
		WHERE id = $1 AND delivered_at IS NULL
	`, id)
	if err != nil {
		return false, fmt.Errorf("notify: mark delivered: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// MarkFailed counts a delivery attempt so poisoned entries eventually stop
// being retried.
func (s *OutboxStore) MarkFailed(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `
		UPDATE notification_outbox SET attempts = attempts + 1 WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("notify: mark failed: %w", err)
	}
	return nil
}

// Deliverer polls the outbox and hands entries to the handler.
type Deliverer struct {
	store     *OutboxStore
	handler   OutboxHandler
	logger    *logging.Logger
	batchSize int32
	interval  time.Duration
}

func NewDeliverer(store *OutboxStore, handler OutboxHandler, logger *logging.Logger) *Deliverer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Deliverer{
		store:     store,
		handler:   handler,
		logger:    logger,
		batchSize: 25,
		interval:  5 * time.Second,
	}
}

func (d *Deliverer) WithBatchSize(size int32) *Deliverer {
	if size > 0 {
		d.batchSize = size
	}
	return d
}

func (d *Deliverer) WithInterval(interval time.Duration) *Deliverer {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

// Start polls until the context is canceled.
func (d *Deliverer) Start(ctx context.Context) {
	if d.store == nil || d.handler == nil {
		return
	}
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Drain(ctx)
		}
	}
}

// Drain processes one batch of pending entries.
func (d *Deliverer) Drain(ctx context.Context) {
	entries, err := d.store.FetchPending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("outbox fetch failed", "error", err)
		return
	}
	for _, entry := range entries {
		if err := d.handler.HandleOutboxEntry(ctx, entry); err != nil {
			d.logger.Error("outbox delivery failed", "error", err, "entry_id", entry.ID, "kind", entry.Kind)
			if err := d.store.MarkFailed(ctx, entry.ID); err != nil {
				d.logger.Error("failed to record outbox attempt", "error", err, "entry_id", entry.ID)
			}
			continue
		}
		if ok, err := d.store.MarkDelivered(ctx, entry.ID); err != nil {
			d.logger.Error("failed to mark outbox delivered", "error", err, "entry_id", entry.ID)
		} else if ok {
			d.logger.Debug("outbox delivered", "entry_id", entry.ID, "kind", entry.Kind)
		}
	}
}
