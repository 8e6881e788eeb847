// Пакет migration — однократный перенос локальных JSON-фикстур каталога
// (apps.json, contents.json) в blob-хранилище.
//
// Оба файла читаются и разбираются до первой записи: ошибка разбора любого
// файла прерывает запуск без сохранений. Отсутствующий файл — пустая
// коллекция. Пустые коллекции не отправляются. Ошибки логируются и
// отражаются в Result, но не возвращаются вызывающему.
package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/bigkaa/appgallery/internal/catalog"
)

// Saver — получатель коллекций (реализуется catalog.Repository).
type Saver interface {
	SaveCollection(ctx context.Context, kind catalog.Kind, items []json.RawMessage) bool
}

// Sources — пути к исходным файлам коллекций.
type Sources struct {
	Apps     string
	Contents string
}

// path возвращает путь к файлу коллекции kind.
func (s Sources) path(kind catalog.Kind) string {
	if kind == catalog.KindApps {
		return s.Apps
	}
	return s.Contents
}

// Outcome — результат обработки одной коллекции.
type Outcome string

const (
	OutcomeSaved   Outcome = "saved"
	OutcomeSkipped Outcome = "skipped_empty"
	OutcomeFailed  Outcome = "failed"
)

// CollectionResult — итог по одной коллекции.
type CollectionResult struct {
	Kind    catalog.Kind
	Items   int
	Outcome Outcome
}

// Result — сводка запуска миграции.
type Result struct {
	// Aborted — запуск прерван до сохранений (ошибка чтения или разбора).
	Aborted bool
	// Err — причина прерывания.
	Err         error
	Collections []CollectionResult
}

// Saved возвращает число успешно сохранённых коллекций.
func (r Result) Saved() int {
	n := 0
	for _, c := range r.Collections {
		if c.Outcome == OutcomeSaved {
			n++
		}
	}
	return n
}

// Migrator выполняет миграцию каталога.
type Migrator struct {
	saver  Saver
	logger *slog.Logger
}

// New создаёт Migrator.
func New(saver Saver, logger *slog.Logger) *Migrator {
	return &Migrator{
		saver:  saver,
		logger: logger.With(slog.String("component", "catalog_migration")),
	}
}

// Run читает оба файла и сохраняет непустые коллекции (apps, затем contents).
func (m *Migrator) Run(ctx context.Context, src Sources) Result {
	loaded := make(map[catalog.Kind][]json.RawMessage, len(catalog.Kinds))

	for _, kind := range catalog.Kinds {
		items, err := readCollection(src.path(kind))
		if err != nil {
			m.logger.Error("Миграция прервана: ошибка чтения исходного файла",
				slog.String("kind", string(kind)),
				slog.String("path", src.path(kind)),
				slog.String("error", err.Error()),
			)
			return Result{Aborted: true, Err: err}
		}
		loaded[kind] = items
	}

	var res Result
	for _, kind := range catalog.Kinds {
		items := loaded[kind]
		cr := CollectionResult{Kind: kind, Items: len(items)}

		switch {
		case len(items) == 0:
			cr.Outcome = OutcomeSkipped
			m.logger.Info("Коллекция пуста, сохранение пропущено", slog.String("kind", string(kind)))
		case m.saver.SaveCollection(ctx, kind, items):
			cr.Outcome = OutcomeSaved
			m.logger.Info("Коллекция перенесена",
				slog.String("kind", string(kind)),
				slog.Int("items", len(items)),
			)
		default:
			cr.Outcome = OutcomeFailed
			m.logger.Error("Не удалось перенести коллекцию",
				slog.String("kind", string(kind)),
				slog.Int("items", len(items)),
			)
		}
		res.Collections = append(res.Collections, cr)
	}

	m.logger.Info("Миграция каталога завершена", slog.Int("saved", res.Saved()))
	return res
}

// readCollection читает JSON-массив из файла. Отсутствующий файл — пустой массив.
func readCollection(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", path, err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("разбор %s: %w", path, err)
	}
	return items, nil
}
