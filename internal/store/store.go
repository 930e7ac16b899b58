// Package store is the Postgres persistence layer: users, categories and
// transactions, plus the restricted read-only executor used by the
// question-answering pipeline.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/domain"
)

// NewPool connects to Postgres and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("NewPool: parsing database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("NewPool: connecting: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("NewPool: ping: %w", err)
	}

	return pool, nil
}

// Store wraps the connection pool with the operations the bot needs.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// New creates a Store.
func New(pool *pgxpool.Pool, log zerolog.Logger) *Store {
	return &Store{pool: pool, log: log}
}

// EnsureUser upserts the user row. Chat ID is refreshed on every contact so
// replies keep working after the user moves chats.
func (s *Store) EnsureUser(ctx context.Context, userID, chatID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (user_id, chat_id, default_currency)
		VALUES ($1, $2, 'COP')
		ON CONFLICT (user_id) DO UPDATE SET chat_id = EXCLUDED.chat_id`,
		userID, chatID)
	if err != nil {
		return fmt.Errorf("EnsureUser: upserting user %d: %w", userID, err)
	}
	return nil
}

// ListCategories returns all categories belonging to the user, expenses
// first, then by name.
func (s *Store) ListCategories(ctx context.Context, userID int64) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, type, is_default
		FROM categories
		WHERE user_id = $1
		ORDER BY type, name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: querying categories for user %d: %w", userID, err)
	}
	defer rows.Close()

	var cats []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.IsDefault); err != nil {
			return nil, fmt.Errorf("ListCategories: scanning row: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCategories: iterating rows: %w", err)
	}

	return cats, nil
}

// CreateTransaction inserts the transaction and fills in its generated ID.
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO transactions (user_id, category_id, amount, transaction_date, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		tx.UserID, tx.CategoryID, tx.Amount, tx.Date, tx.Description).Scan(&tx.ID)
	if err != nil {
		return fmt.Errorf("CreateTransaction: inserting transaction for user %d: %w", tx.UserID, err)
	}

	s.log.Debug().Int64("user_id", tx.UserID).Int64("transaction_id", tx.ID).
		Str("amount", tx.Amount.String()).Msg("Transaction created")
	return nil
}
