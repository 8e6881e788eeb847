// Пакет sqlitestore — blob-хранилище каталога в локальном файле SQLite
// (драйвер modernc.org/sqlite, без cgo). Предназначен для разработки
// и одноузловых инсталляций.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/bigkaa/appgallery/internal/blobstore"
)

const backendName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS catalog_blobs (
	key        TEXT PRIMARY KEY,
	data       BLOB    NOT NULL,
	size_bytes INTEGER NOT NULL,
	updated_at TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

// Store — blob-хранилище в SQLite.
type Store struct {
	db *sql.DB
}

// Open открывает (или создаёт) файл базы и применяет схему.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("создание каталога %s: %w", dir, err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("открытие SQLite %s: %w", path, err)
	}
	// Один writer — без SQLITE_BUSY при параллельных Put
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("создание схемы SQLite: %w", err)
	}

	logger.Info("Хранилище SQLite открыто", slog.String("path", path))
	return &Store{db: db}, nil
}

// Get возвращает содержимое блоба.
func (s *Store) Get(ctx context.Context, key string) (data []byte, err error) {
	defer func() { blobstore.Observe(backendName, blobstore.OpGet, err) }()

	if err := blobstore.ValidateKey(key); err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `SELECT data FROM catalog_blobs WHERE key = ?`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения catalog_blobs[%s]: %w", key, err)
	}
	return data, nil
}

// Put создаёт или перезаписывает блоб.
func (s *Store) Put(ctx context.Context, key string, data []byte) (err error) {
	defer func() { blobstore.Observe(backendName, blobstore.OpPut, err) }()

	if err := blobstore.ValidateKey(key); err != nil {
		return err
	}

	query := `
		INSERT INTO catalog_blobs (key, data, size_bytes)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE
		SET data = excluded.data,
			size_bytes = excluded.size_bytes,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

	if _, err := s.db.ExecContext(ctx, query, key, data, len(data)); err != nil {
		return fmt.Errorf("ошибка сохранения catalog_blobs[%s]: %w", key, err)
	}
	return nil
}

// Ping проверяет доступность базы.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close закрывает базу.
func (s *Store) Close() error {
	return s.db.Close()
}
