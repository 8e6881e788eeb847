// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// Галерея мониторит зависимости выбранного blob-хранилища:
//   - blob API — HTTP checker к readiness endpoint (GL_BLOB_BACKEND=http, critical)
//   - PostgreSQL — SQL checker через существующий pgxpool (GL_BLOB_BACKEND=postgres, critical)
//
// Для sqlite внешних зависимостей нет, сервис не создаётся.
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status — категория статуса
//   - app_dependency_status_detail — детальный статус
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // HTTP checker для blob API
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"     // PostgreSQL checker (pool mode)
	"github.com/prometheus/client_golang/prometheus"
)

// ErrNoDependencies — у выбранного backend нет внешних зависимостей.
var ErrNoDependencies = errors.New("нет зависимостей для мониторинга")

// Dependencies — внешние зависимости галереи.
type Dependencies struct {
	// BlobHealthURL — readiness endpoint blob API (пусто — не мониторится).
	BlobHealthURL string
	// DB — *sql.DB, полученный из pgxpool через stdlib.OpenDBFromPool() (nil — не мониторится).
	DB *sql.DB
	// DatabaseURL — URL PostgreSQL (для метрик/лейблов, не для подключения).
	DatabaseURL string
}

func (d Dependencies) empty() bool {
	return d.BlobHealthURL == "" && d.DB == nil
}

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Метрики регистрируются в глобальном Prometheus registry.
//
// Параметры:
//   - serviceID — имя вершины графа текущего приложения (e.g. "appgallery")
//   - group — имя группы в метриках (GL_DEPHEALTH_GROUP)
//   - deps — зависимости выбранного blob backend
//   - checkInterval — интервал проверки зависимостей (GL_DEPHEALTH_CHECK_INTERVAL)
func NewDephealthService(
	serviceID string,
	group string,
	deps Dependencies,
	checkInterval time.Duration,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, deps, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	serviceID string,
	group string,
	deps Dependencies,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, deps, checkInterval, logger,
		dephealth.WithRegisterer(registerer))
}

// newDephealthService — внутренний конструктор.
func newDephealthService(
	serviceID string,
	group string,
	deps Dependencies,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	if deps.empty() {
		return nil, ErrNoDependencies
	}

	opts := []dephealth.Option{dephealth.WithLogger(logger)}

	if deps.BlobHealthURL != "" {
		opts = append(opts, dephealth.HTTP("blob-api",
			dephealth.FromURL(deps.BlobHealthURL),
			dephealth.WithHTTPHealthPath(healthPath(deps.BlobHealthURL)),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(true),
		))
	}

	if deps.DB != nil {
		// Connection pool mode: проверка через *sql.DB поверх pgxpool
		// обнаруживает исчерпание пула соединений.
		opts = append(opts, dephealth.AddDependency("postgresql", dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(deps.DB)),
			dephealth.FromURL(deps.DatabaseURL),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(true),
		))
	}

	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// healthPath извлекает path из URL readiness endpoint.
// По умолчанию dephealth проверяет /health.
func healthPath(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		return parsed.Path
	}
	return "/health"
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
