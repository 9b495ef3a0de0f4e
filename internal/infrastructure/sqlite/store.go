// Package sqlite implementa los puertos del ledger sobre SQLite (modernc.org/sqlite, sin cgo).
// Pensado para despliegues de una sola instancia y para el CLI.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jhoicas/timeledger-api/internal/application/billing"
	"github.com/jhoicas/timeledger-api/internal/domain/repository"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var _ billing.LedgerTxRunner = (*Store)(nil)

// dbtx es lo común entre *sql.DB y *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persiste el ledger en un archivo SQLite.
type Store struct {
	db *sql.DB
}

// Open abre (o crea) la base en path. No aplica migraciones; ver Migrate.
// busyTimeout es la espera máxima por el lock de escritura.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ruta de SQLite requerida")
	}
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	// _txlock=immediate toma el lock de escritura en BEGIN: es el equivalente a SELECT ... FOR UPDATE.
	dsn := fmt.Sprintf(
		"file:%s?_txlock=immediate&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
		filepath.Clean(path), busyTimeout.Milliseconds(),
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Un solo escritor: una conexión serializa las transacciones del ledger.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close cierra el handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// TimeEntries devuelve el repositorio de registros fuera de transacción.
func (s *Store) TimeEntries() *EntryRepo { return &EntryRepo{q: s.db} }

// Invoices devuelve el repositorio de facturas fuera de transacción.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{q: s.db} }

// RunLedger ejecuta fn dentro de una transacción IMMEDIATE y hace Commit o Rollback.
// Dentro de fn solo deben usarse los repos recibidos: la única conexión la tiene la tx.
func (s *Store) RunLedger(ctx context.Context, fn func(
	entryRepo repository.TimeEntryRepository,
	invoiceRepo repository.InvoiceRepository,
) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if isBusy(err) {
			return fmt.Errorf("base de datos ocupada por otra transacción: %w", err)
		}
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&EntryRepo{q: tx}, &InvoiceRepo{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// placeholders devuelve "?, ?, ?" y los args para un IN (...).
func placeholders(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// isBusy indica que el lock de escritura no se obtuvo dentro de busy_timeout.
func isBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3lib.SQLITE_BUSY
	}
	return false
}
