package storage

// sqlite.go — cache local de price history, una tabla y tres índices.
//
// Estrategia:
//   - `price_history`: UNA fila por evento on-chain, key compuesta
//     (pixel-timestamp-block-logindex) como PRIMARY KEY. UPSERT: redelivery
//     y re-backfill sobreescriben en vez de duplicar.
//   - price_wei se guarda como TEXT decimal — los precios son wei de
//     precisión arbitraria y un INTEGER de 64 bits se queda corto.
//   - Inicialización perezosa: el schema se aplica en el primer uso,
//     single-flight vía sync.Once. Abrir el store no toca el disco.

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"sync"

	"github.com/alejandrodnm/pixelwatch/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS price_history (
    key          TEXT PRIMARY KEY,
    pixel_id     INTEGER NOT NULL,
    timestamp    INTEGER NOT NULL,
    price_wei    TEXT    NOT NULL,
    event_type   TEXT    NOT NULL,
    from_address TEXT    NOT NULL DEFAULT '',
    to_address   TEXT    NOT NULL DEFAULT '',
    block_number INTEGER NOT NULL DEFAULT 0,
    tx_hash      TEXT    NOT NULL DEFAULT '',
    log_index    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_history_pixel ON price_history(pixel_id);
CREATE INDEX IF NOT EXISTS idx_history_ts    ON price_history(timestamp);
CREATE INDEX IF NOT EXISTS idx_history_type  ON price_history(event_type);
`

// SQLiteStore implementa ports.EventStore usando SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	dsn string

	once    sync.Once
	db      *sql.DB
	initErr error
}

// NewSQLiteStore prepara un store sobre la ruta dada (o ":memory:").
// No abre la base de datos todavía: el primer Put/Get aplica el schema,
// y los callers que lleguen concurrentes observan el mismo resultado.
func NewSQLiteStore(dsn string) *SQLiteStore {
	return &SQLiteStore{dsn: dsn}
}

// init abre la DB y aplica el schema exactamente una vez.
func (s *SQLiteStore) init() error {
	s.once.Do(func() {
		db, err := sql.Open("sqlite", s.dsn)
		if err != nil {
			s.initErr = fmt.Errorf("storage.SQLiteStore: open %q: %w", s.dsn, err)
			return
		}
		db.SetMaxOpenConns(1) // SQLite es single-writer
		db.SetMaxIdleConns(1)

		if _, err := db.Exec(schema); err != nil {
			db.Close()
			s.initErr = fmt.Errorf("storage.SQLiteStore: apply schema: %w", err)
			return
		}
		s.db = db
	})
	return s.initErr
}

// Put inserta o sobreescribe el evento por su key compuesta. Last-write-wins;
// sobreescribir no es un error.
func (s *SQLiteStore) Put(ctx context.Context, e domain.PriceChangeEvent) error {
	if err := s.init(); err != nil {
		return err
	}

	price := "0"
	if e.PriceWei != nil {
		price = e.PriceWei.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO price_history
			(key, pixel_id, timestamp, price_wei, event_type,
			 from_address, to_address, block_number, tx_hash, log_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			price_wei    = excluded.price_wei,
			event_type   = excluded.event_type,
			from_address = excluded.from_address,
			to_address   = excluded.to_address,
			tx_hash      = excluded.tx_hash
	`,
		e.Key(), e.PixelID, e.Timestamp, price, string(e.EventType),
		e.From, e.To, e.Block, e.TxHash, e.LogIndex,
	)
	if err != nil {
		return fmt.Errorf("storage.Put: upsert %s: %w", e.Key(), err)
	}
	return nil
}

// GetByPixel devuelve el historial del pixel ascendente por timestamp,
// con bloque y log index como desempate.
func (s *SQLiteStore) GetByPixel(ctx context.Context, pixelID int) ([]domain.PriceChangeEvent, error) {
	return s.query(ctx, `
		SELECT pixel_id, timestamp, price_wei, event_type,
		       from_address, to_address, block_number, tx_hash, log_index
		FROM price_history
		WHERE pixel_id = ?
		ORDER BY timestamp, block_number, log_index
	`, pixelID)
}

// GetByPixelAndType es GetByPixel filtrado a una variante, mismo orden.
func (s *SQLiteStore) GetByPixelAndType(ctx context.Context, pixelID int, kind domain.EventType) ([]domain.PriceChangeEvent, error) {
	return s.query(ctx, `
		SELECT pixel_id, timestamp, price_wei, event_type,
		       from_address, to_address, block_number, tx_hash, log_index
		FROM price_history
		WHERE pixel_id = ? AND event_type = ?
		ORDER BY timestamp, block_number, log_index
	`, pixelID, string(kind))
}

// GetAll devuelve todos los registros, sin garantía de orden.
func (s *SQLiteStore) GetAll(ctx context.Context) ([]domain.PriceChangeEvent, error) {
	return s.query(ctx, `
		SELECT pixel_id, timestamp, price_wei, event_type,
		       from_address, to_address, block_number, tx_hash, log_index
		FROM price_history
	`)
}

// Count devuelve el número total de registros.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	if err := s.init(); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM price_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage.Count: %w", err)
	}
	return n, nil
}

// Close cierra la base de datos si llegó a abrirse.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]domain.PriceChangeEvent, error) {
	if err := s.init(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.query: %w", err)
	}
	defer rows.Close()

	var events []domain.PriceChangeEvent
	for rows.Next() {
		var (
			e     domain.PriceChangeEvent
			price string
			kind  string
		)
		if err := rows.Scan(
			&e.PixelID, &e.Timestamp, &price, &kind,
			&e.From, &e.To, &e.Block, &e.TxHash, &e.LogIndex,
		); err != nil {
			return nil, fmt.Errorf("storage.query: scan row: %w", err)
		}

		wei, ok := new(big.Int).SetString(price, 10)
		if !ok {
			return nil, fmt.Errorf("storage.query: corrupt price_wei %q", price)
		}
		e.PriceWei = wei
		e.EventType = domain.EventType(kind)
		events = append(events, e)
	}

	return events, rows.Err()
}
