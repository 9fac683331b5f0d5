// Package postgres - реализация domain.Store поверх PostgreSQL (pgx через database/sql).
//
// Единица работы открывает транзакцию READ COMMITTED; товары и корзины внутри неё
// читаются с SELECT ... FOR UPDATE, поэтому конкурентные оформления одного товара
// выстраиваются в очередь на строке, а остаток не уходит в минус (CHECK stock >= 0).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute

	opTimeout = 5 * time.Second
)

// dbtx - общее подмножество *sql.DB и *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store оборачивает SQL-подключение к PostgreSQL.
type Store struct {
	db *sql.DB
	*repo
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db, repo: &repo{db: db, q: db}}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithinTx выполняет fn в одной транзакции. Ошибка fn или отмена ctx откатывают все записи.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repo domain.Repository) error) (err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &repo{q: tx, tx: tx}); err != nil {
		return mapTxError(err)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return mapTxError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// repo реализует domain.Repository. Внутри транзакции tx != nil и чтения блокируют строки.
type repo struct {
	db *sql.DB
	tx *sql.Tx
	q  dbtx
}

func (r *repo) lockClause() string {
	if r.tx != nil {
		return " FOR UPDATE"
	}
	return ""
}

// atomic выполняет fn в текущей транзакции или открывает короткую собственную.
func (r *repo) atomic(ctx context.Context, fn func(q dbtx) error) (err error) {
	if r.tx != nil {
		return fn(r.tx)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return mapTxError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// withTimeout ограничивает запрос вне транзакции; внутри транзакции срок задаёт вызывающий.
func (r *repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.tx != nil {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, opTimeout)
}

func scanErr(err error, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

var (
	_ domain.Store      = (*Store)(nil)
	_ domain.Repository = (*repo)(nil)
)
