package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/hajarsalhi/book-store-sub000/internal/domain"
)

var ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// CheckoutSession is one checkout attempt. The cart snapshot is frozen JSON
// from submit time; the live cart keeps moving independently.
type CheckoutSession struct {
	ID             string
	UserID         string
	CartSnapshot   []byte
	IdempotencyKey string
	Status         domain.CheckoutStatus
	TotalAmount    string
	OrderID        sql.NullString
	FailureReason  sql.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OutboxEvent struct {
	ID          int64
	AggregateId string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt sql.NullTime
}

type Repository struct {
	db *sql.DB
}

type Store interface {
	GetSessionByIdempotencyKey(ctx context.Context, key string) (*string, *domain.CheckoutStatus, error)
	HasActiveSession(ctx context.Context, userID string) (bool, error)
	CreateSession(ctx context.Context, session *CheckoutSession) error
	UpdateSessionStatus(ctx context.Context, sessionID string, status domain.CheckoutStatus) error
	FailSession(ctx context.Context, sessionID string, reason string) error
	SetOrder(ctx context.Context, sessionID string, orderID string, status domain.CheckoutStatus) error
	CompleteSession(ctx context.Context, sessionID string, payload []byte) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventID int64) error
	GetStuckSessions(ctx context.Context) ([]*CheckoutSession, error)
	Close() error
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) GetSessionByIdempotencyKey(ctx context.Context, key string) (*string, *domain.CheckoutStatus, error) {
	query := `SELECT id, status FROM checkout_sessions WHERE idempotency_key = $1`

	var id string
	var status domain.CheckoutStatus
	err := r.db.QueryRowContext(ctx, query, key).Scan(&id, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrIdempotencyKeyNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query session by idempotency key: %w", err)
	}
	return &id, &status, nil
}

// HasActiveSession reports whether the user has a checkout still in flight.
// Terminal sessions (COMPLETED, FAILED) do not count.
func (r *Repository) HasActiveSession(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM checkout_sessions
	            WHERE user_id = $1 AND status NOT IN ($2, $3))`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID,
		domain.CheckoutStatusCompleted, domain.CheckoutStatusFailed).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active session: %w", err)
	}
	return exists, nil
}

func (r *Repository) CreateSession(ctx context.Context, session *CheckoutSession) error {
	query := `INSERT INTO checkout_sessions (id, user_id, cart_snapshot, idempotency_key, status, total_amount, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.CartSnapshot,
		session.IdempotencyKey,
		domain.CheckoutStatusInitiated,
		session.TotalAmount)
	if err != nil {
		return fmt.Errorf("failed to create checkout session: %w", err)
	}
	return nil
}

func (r *Repository) UpdateSessionStatus(ctx context.Context, sessionID string, status domain.CheckoutStatus) error {
	query := `UPDATE checkout_sessions SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, sessionID, status)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("checkout session %s not found", sessionID)
	}
	return nil
}

func (r *Repository) FailSession(ctx context.Context, sessionID string, reason string) error {
	query := `UPDATE checkout_sessions SET status = $2, failure_reason = $3, updated_at = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, sessionID, domain.CheckoutStatusFailed, reason)
	if err != nil {
		return fmt.Errorf("failed to mark session as failed: %w", err)
	}
	return nil
}

func (r *Repository) SetOrder(ctx context.Context, sessionID string, orderID string, status domain.CheckoutStatus) error {
	query := `UPDATE checkout_sessions SET order_id = $2, status = $3, updated_at = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, sessionID, orderID, status)
	if err != nil {
		return fmt.Errorf("failed to attach order to session: %w", err)
	}
	return nil
}

// CompleteSession flips the session to COMPLETED and writes the outbox event
// in the same transaction, so the event cannot be lost between the two.
func (r *Repository) CompleteSession(ctx context.Context, sessionID string, payload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updateQuery := `UPDATE checkout_sessions SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateQuery, sessionID, domain.CheckoutStatusCompleted); err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}

	outboxQuery := `INSERT INTO checkout_outbox (aggregate_id, event_type, payload, created_at)
	                VALUES ($1, $2, $3, NOW())`
	if _, err = tx.ExecContext(ctx, outboxQuery, sessionID, "checkout.completed", payload); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit completion: %w", err)
	}
	return nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM checkout_outbox
	          WHERE processed_at IS NULL
	          ORDER BY id
	          LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		event := &OutboxEvent{}
		if err := rows.Scan(&event.ID, &event.AggregateId, &event.EventType, &event.Payload, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, eventID int64) error {
	query := `UPDATE checkout_outbox SET processed_at = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return nil
}

// GetStuckSessions finds checkouts that crashed mid library unlock. The order
// already exists, so they are safe to push through to COMPLETED.
func (r *Repository) GetStuckSessions(ctx context.Context) ([]*CheckoutSession, error) {
	query := `SELECT id, user_id, cart_snapshot, idempotency_key, status, total_amount, order_id, created_at, updated_at
	          FROM checkout_sessions
	          WHERE status = $1
	            AND updated_at < NOW() - INTERVAL '1 minute'
	            AND NOT EXISTS (
	              SELECT 1 FROM checkout_outbox WHERE aggregate_id = checkout_sessions.id::text)`

	rows, err := r.db.QueryContext(ctx, query, domain.CheckoutStatusUnlockingLibrary)
	if err != nil {
		return nil, fmt.Errorf("failed to query stuck sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*CheckoutSession
	for rows.Next() {
		session := &CheckoutSession{}
		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.CartSnapshot,
			&session.IdempotencyKey,
			&session.Status,
			&session.TotalAmount,
			&session.OrderID,
			&session.CreatedAt,
			&session.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stuck session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (r *Repository) Close() error {
	return r.db.Close()
}
