// Пакет pgstore — blob-хранилище каталога в таблице PostgreSQL catalog_blobs.
// Запросы — чистый SQL через pgx, без ORM.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bigkaa/appgallery/internal/blobstore"
)

const backendName = "postgres"

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется *pgxpool.Pool и pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pinger — опциональная проверка доступности (есть у *pgxpool.Pool).
type pinger interface {
	Ping(ctx context.Context) error
}

// Store — blob-хранилище в PostgreSQL.
type Store struct {
	db DBTX
}

// New создаёт хранилище поверх пула или транзакции.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Get возвращает содержимое блоба.
func (s *Store) Get(ctx context.Context, key string) (data []byte, err error) {
	defer func() { blobstore.Observe(backendName, blobstore.OpGet, err) }()

	if err := blobstore.ValidateKey(key); err != nil {
		return nil, err
	}

	err = s.db.QueryRow(ctx, `SELECT data FROM catalog_blobs WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения catalog_blobs[%s]: %w", key, err)
	}
	return data, nil
}

// Put создаёт или перезаписывает блоб (INSERT ... ON CONFLICT DO UPDATE).
func (s *Store) Put(ctx context.Context, key string, data []byte) (err error) {
	defer func() { blobstore.Observe(backendName, blobstore.OpPut, err) }()

	if err := blobstore.ValidateKey(key); err != nil {
		return err
	}

	query := `
		INSERT INTO catalog_blobs (key, data, size_bytes)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET data = EXCLUDED.data,
			size_bytes = EXCLUDED.size_bytes,
			updated_at = NOW()`

	if _, err := s.db.Exec(ctx, query, key, data, len(data)); err != nil {
		return fmt.Errorf("ошибка сохранения catalog_blobs[%s]: %w", key, err)
	}
	return nil
}

// Ping проверяет доступность PostgreSQL.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.db.(pinger); ok {
		return p.Ping(ctx)
	}
	var one int
	return s.db.QueryRow(ctx, `SELECT 1`).Scan(&one)
}
