package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-gateway/internal/message"
	"github.com/nerrad567/gray-logic-gateway/migrations"
)

const (
	// timeLayout is fixed-width so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

	// persistTimeout bounds a single insert from Publish.
	persistTimeout = 5 * time.Second

	// DefaultHistoryLimit is used when History is called with a non-positive limit.
	DefaultHistoryLimit = 100
)

// HistoryEntry is one stored record.
type HistoryEntry struct {
	ID         int64
	Resource   data.ResourceName
	Kind       string
	Name       string
	TypeID     int
	StatusCode int
	HasError   bool
	Version    int
	RecordedAt time.Time
	StoredAt   time.Time
	Payload    string
}

// PersistenceClientConnector stores upstream records in the local SQLite
// database.
type PersistenceClientConnector struct {
	cfg    config.DatabaseConfig
	logger Logger
	now    func() time.Time

	mu sync.RWMutex
	db *database.DB
}

// NewPersistenceClientConnector creates a connector. It does not open the
// database.
func NewPersistenceClientConnector(cfg config.DatabaseConfig, logger Logger) *PersistenceClientConnector {
	return &PersistenceClientConnector{
		cfg:    cfg,
		logger: orNoop(logger),
		now:    time.Now,
	}
}

// SetDataMessageListener accepts the listener. The persistence client has
// no inbound traffic, so it is not used.
func (p *PersistenceClientConnector) SetDataMessageListener(message.Listener) bool {
	return true
}

// Start opens the database, applies migrations and prunes expired rows.
func (p *PersistenceClientConnector) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return nil
	}

	db, err := database.Open(ctx, p.cfg)
	if err != nil {
		return fmt.Errorf("starting persistence client connector: %w", err)
	}
	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("starting persistence client connector: %w", err)
	}
	if applied > 0 {
		p.logger.Info("applied schema migrations", "count", applied)
	}
	p.db = db

	if n, err := p.prune(ctx, db); err != nil {
		p.logger.Warn("failed to prune record history", "error", err)
	} else if n > 0 {
		p.logger.Info("pruned record history", "rows", n, "retention_days", p.cfg.RetentionDays)
	}

	p.logger.Info("persistence client connector started", "path", p.cfg.Path)
	return nil
}

// Stop closes the database.
func (p *PersistenceClientConnector) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	if err != nil {
		return fmt.Errorf("stopping persistence client connector: %w", err)
	}
	p.logger.Info("persistence client connector stopped")
	return nil
}

// Publish stores payload as one history row. Payloads that do not decode as
// the record kind carried on res are rejected.
func (p *PersistenceClientConnector) Publish(res data.ResourceName, payload string, _ int) bool {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := p.Store(ctx, res, payload); err != nil {
		p.logger.Debug("record not persisted", "resource", res.String(), "error", err)
		return false
	}
	return true
}

// Store decodes payload and inserts it into the record history.
func (p *PersistenceClientConnector) Store(ctx context.Context, res data.ResourceName, payload string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.db == nil {
		return ErrNotStarted
	}

	kind, ok := res.PayloadKind()
	if !ok {
		return fmt.Errorf("%w: %q", message.ErrUnknownResource, res)
	}
	r, err := data.FromJSON(payload, kind)
	if err != nil {
		return err
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO record_history
			(resource, kind, name, type_id, status_code, has_error, version, recorded_at, stored_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.String(),
		kind.String(),
		r.Name(),
		r.TypeID(),
		r.StatusCode(),
		boolToInt(r.HasError()),
		r.Version(),
		r.TimeStamp().UTC().Format(timeLayout),
		p.now().UTC().Format(timeLayout),
		payload,
	)
	if err != nil {
		return fmt.Errorf("storing %s record: %w", kind, err)
	}
	return nil
}

// History returns the most recent records stored for res, newest first.
func (p *PersistenceClientConnector) History(ctx context.Context, res data.ResourceName, limit int) ([]HistoryEntry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.db == nil {
		return nil, ErrNotStarted
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, resource, kind, name, type_id, status_code, has_error, version, recorded_at, stored_at, payload
		FROM record_history
		WHERE resource = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`,
		res.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying record history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e                    HistoryEntry
			resource             string
			hasError             int
			recordedAt, storedAt string
		)
		if err := rows.Scan(&e.ID, &resource, &e.Kind, &e.Name, &e.TypeID, &e.StatusCode,
			&hasError, &e.Version, &recordedAt, &storedAt, &e.Payload); err != nil {
			return nil, fmt.Errorf("scanning record history: %w", err)
		}
		e.Resource = data.ResourceName(resource)
		e.HasError = hasError != 0
		if e.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("parsing recorded_at: %w", err)
		}
		if e.StoredAt, err = time.Parse(timeLayout, storedAt); err != nil {
			return nil, fmt.Errorf("parsing stored_at: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating record history: %w", err)
	}
	return out, nil
}

// Prune deletes rows stored longer ago than the configured retention. It
// returns the number of rows removed. A retention of 0 keeps everything.
func (p *PersistenceClientConnector) Prune(ctx context.Context) (int64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.db == nil {
		return 0, ErrNotStarted
	}
	return p.prune(ctx, p.db)
}

func (p *PersistenceClientConnector) prune(ctx context.Context, db *database.DB) (int64, error) {
	if p.cfg.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := p.now().UTC().AddDate(0, 0, -p.cfg.RetentionDays).Format(timeLayout)
	res, err := db.ExecContext(ctx, "DELETE FROM record_history WHERE stored_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning record history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning record history: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compile-time interface checks.
var (
	_ message.Connector = (*PersistenceClientConnector)(nil)
	_ message.Publisher = (*PersistenceClientConnector)(nil)
)
