// Точка входа App Gallery — публичная галерея приложений и материалов.
// Загружает конфигурацию, открывает blob-хранилище каталога, настраивает
// политику изображений, админ-сессии и мониторинг зависимостей,
// запускает HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	apihandlers "github.com/bigkaa/appgallery/internal/api/handlers"
	"github.com/bigkaa/appgallery/internal/api/openapi"
	"github.com/bigkaa/appgallery/internal/blobstore/backend"
	"github.com/bigkaa/appgallery/internal/catalog"
	"github.com/bigkaa/appgallery/internal/config"
	"github.com/bigkaa/appgallery/internal/gatekeeper"
	"github.com/bigkaa/appgallery/internal/imagepolicy"
	"github.com/bigkaa/appgallery/internal/server"
	"github.com/bigkaa/appgallery/internal/service"
	"github.com/bigkaa/appgallery/internal/ui/auth"
	uihandlers "github.com/bigkaa/appgallery/internal/ui/handlers"
	"github.com/bigkaa/appgallery/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/appgallery/internal/ui/middleware"
)

// serviceID — имя приложения в графе зависимостей topologymetrics.
const serviceID = "appgallery"

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("App Gallery запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("blob_backend", cfg.BlobBackend),
	)

	// 3. Каталоги переводов UI
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Blob-хранилище каталога
	ctx := context.Background()
	blobs, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка инициализации blob-хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer blobs.Close()

	repo := catalog.NewRepository(blobs.Store, cfg.CacheSize, cfg.CacheTTL, logger)

	// 5. Политика удалённых изображений
	images, err := loadImagePolicy(cfg)
	if err != nil {
		logger.Error("Ошибка загрузки политики изображений", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Политика изображений загружена",
		slog.Int("patterns", len(images.Patterns())),
	)

	// 6. Админ-сессии
	if cfg.SessionSecret == "" {
		logger.Warn("GL_SESSION_SECRET не задан, админ-сессии не сохраняются между рестартами")
	}
	sessions, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SecureCookie, cfg.SessionTTL)
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	authenticator, err := auth.NewAuthenticator(cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		logger.Error("Ошибка настройки пароля администратора", slog.String("error", err.Error()))
		os.Exit(1)
	}
	authStore := auth.NewStore(authenticator, sessions, logger)

	// 7. topologymetrics — мониторинг зависимостей blob backend
	var health uihandlers.HealthProvider
	dephealthSvc, err := service.NewDephealthService(
		serviceID,
		cfg.DephealthGroup,
		service.Dependencies{
			BlobHealthURL: blobs.HealthURL,
			DB:            blobs.DB,
			DatabaseURL:   blobs.DatabaseURL,
		},
		cfg.DephealthCheckInterval,
		logger,
	)
	switch {
	case errors.Is(err, service.ErrNoDependencies):
		logger.Info("Внешних зависимостей нет, topologymetrics не запускается",
			slog.String("blob_backend", blobs.Kind),
		)
		dephealthSvc = nil
	case err != nil:
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
		dephealthSvc = nil
	default:
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
			dephealthSvc = nil
		} else {
			health = dephealthSvc
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 8. HTTP-обработчики
	validator, err := openapi.NewValidator(ctx, logger)
	if err != nil {
		logger.Error("Ошибка загрузки описания API", slog.String("error", err.Error()))
		os.Exit(1)
	}

	components := server.Components{
		Health:         apihandlers.NewHealthHandler(apihandlers.NewPingChecker("blob store", repo, 3*time.Second)),
		Catalog:        apihandlers.NewCatalogHandler(repo, logger),
		Admin:          apihandlers.NewAdminHandler(repo, authStore, logger),
		Home:           uihandlers.NewHomeHandler(repo, images, logger),
		Auth:           uihandlers.NewAuthHandler(authStore, logger),
		Dashboard:      uihandlers.NewDashboardHandler(repo, health, logger),
		Assets:         uihandlers.NewAssetsHandler(logger),
		Images:         uihandlers.NewImageProxy(images, nil, logger),
		AuthMiddleware: uimiddleware.NewUIAuth(authStore, logger),
		Gatekeeper:     gatekeeper.New(gatekeeper.PassThrough, logger),
		Validator:      validator,
	}

	// 9. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, components)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 10. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("App Gallery остановлен")
}

// loadImagePolicy загружает политику из YAML-файла (GL_IMAGE_POLICY_FILE)
// или из списка шаблонов GL_IMAGE_REMOTE_PATTERNS.
func loadImagePolicy(cfg *config.Config) (*imagepolicy.Policy, error) {
	if cfg.ImagePolicyFile != "" {
		return imagepolicy.LoadFile(cfg.ImagePolicyFile)
	}
	return imagepolicy.FromStrings(cfg.ImageRemotePatterns)
}
