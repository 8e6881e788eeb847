// Утилита migrate-catalog — однократный перенос локальных фикстур каталога
// (apps.json, contents.json) в blob-хранилище галереи.
//
// Blob-хранилище выбирается теми же переменными окружения GL_*, что и у
// веб-сервера. Код возврата 0 после попытки миграции независимо от её
// исхода (результат — в логе); 1 — только при ошибке конфигурации или
// инициализации хранилища.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bigkaa/appgallery/internal/blobstore/backend"
	"github.com/bigkaa/appgallery/internal/catalog"
	"github.com/bigkaa/appgallery/internal/config"
	"github.com/bigkaa/appgallery/internal/migration"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

// run разбирает флаги и выполняет миграцию. Возвращает код завершения.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	flags := pflag.NewFlagSet("migrate-catalog", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	var src migration.Sources
	flags.StringVar(&src.Apps, "apps", "data/apps.json", "путь к JSON-файлу коллекции apps")
	flags.StringVar(&src.Contents, "contents", "data/contents.json", "путь к JSON-файлу коллекции contents")
	showVersion := flags.BoolP("version", "v", false, "вывести версию и выйти")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stderr, "migrate-catalog", config.Version)
		return 0
	}

	cfg, err := config.LoadForMigration()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		return 1
	}

	logger := config.SetupLogger(cfg)
	logger.Info("Миграция каталога запускается",
		slog.String("version", config.Version),
		slog.String("backend", cfg.BlobBackend),
		slog.String("apps", src.Apps),
		slog.String("contents", src.Contents),
	)

	b, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка инициализации blob-хранилища", slog.String("error", err.Error()))
		return 1
	}
	defer b.Close()

	repo := catalog.NewRepository(b.Store, cfg.CacheSize, cfg.CacheTTL, logger)
	res := migration.New(repo, logger).Run(ctx, src)

	if res.Aborted {
		logger.Warn("Миграция не выполнена, данные в хранилище не изменены")
	}
	return 0
}
