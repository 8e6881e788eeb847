// Пакет server — HTTP-сервер App Gallery с graceful shutdown.
// Без TLS — TLS termination на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	apihandlers "github.com/bigkaa/appgallery/internal/api/handlers"
	"github.com/bigkaa/appgallery/internal/api/middleware"
	"github.com/bigkaa/appgallery/internal/api/openapi"
	"github.com/bigkaa/appgallery/internal/config"
	"github.com/bigkaa/appgallery/internal/gatekeeper"
	uihandlers "github.com/bigkaa/appgallery/internal/ui/handlers"
	"github.com/bigkaa/appgallery/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/appgallery/internal/ui/middleware"
	"github.com/bigkaa/appgallery/internal/ui/static"
)

// Components — обработчики, из которых собирается маршрутизатор.
type Components struct {
	Health  *apihandlers.HealthHandler
	Catalog *apihandlers.CatalogHandler
	Admin   *apihandlers.AdminHandler

	Home      *uihandlers.HomeHandler
	Auth      *uihandlers.AuthHandler
	Dashboard *uihandlers.DashboardHandler
	Assets    *uihandlers.AssetsHandler
	Images    *uihandlers.ImageProxy

	// AuthMiddleware — проверка админ-сессии для /admin/*.
	AuthMiddleware *uimiddleware.UIAuth
	// Gatekeeper — nil заменяется на gatekeeper с политикой PassThrough.
	Gatekeeper *gatekeeper.Gatekeeper
	// Validator — проверка запросов к JSON API по openapi.yaml (nil — без проверки).
	Validator *openapi.Validator
}

// Server — HTTP-сервер App Gallery.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, c Components) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(cfg, logger, c),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi-маршрутизатор галереи.
func NewRouter(cfg *config.Config, logger *slog.Logger, c Components) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(i18n.Middleware(cfg.DefaultLang))

	// Статика и прокси изображений не проходят через gatekeeper
	router.Handle("/_app/*", http.StripPrefix("/_app/", http.FileServer(static.FileSystem())))
	router.Method(http.MethodGet, "/_image", c.Images)

	gk := c.Gatekeeper
	if gk == nil {
		gk = gatekeeper.New(gatekeeper.PassThrough, logger)
	}

	validate := func(next http.Handler) http.Handler { return next }
	if c.Validator != nil {
		validate = c.Validator.Middleware()
	}

	router.Group(func(r chi.Router) {
		r.Use(gk.Middleware())

		// Служебные файлы
		r.Get("/manifest.json", c.Assets.HandleManifest)
		r.Get("/robots.txt", c.Assets.HandleRobots)
		r.Get("/sitemap.xml", c.Assets.HandleSitemap)
		r.Get("/favicon.ico", c.Assets.HandleFavicon)
		r.Get("/icon", c.Assets.HandleIcon)
		r.Get("/icon-{size}", c.Assets.HandleIcon)
		r.Get("/apple-icon", c.Assets.HandleAppleIcon)
		r.Get("/apple-icon-{size}", c.Assets.HandleAppleIcon)

		// Health и metrics проверяются Kubernetes напрямую
		r.Get("/health/live", c.Health.HealthLive)
		r.Get("/health/ready", c.Health.HealthReady)
		r.Get("/metrics", c.Health.GetMetrics)

		// Публичные страницы и API
		r.Get("/", c.Home.HandleHome)
		r.Post("/toggle-language", uihandlers.HandleToggleLanguage)
		r.Post("/set-language", uihandlers.HandleSetLanguage)
		r.With(validate).Get("/api/public/apps", c.Catalog.ListApps)
		r.With(validate).Get("/api/public/contents", c.Catalog.ListContents)

		// Вход и выход администратора — без проверки сессии
		r.Get(uimiddleware.LoginPath, c.Auth.HandleLoginPage)
		r.Post(uimiddleware.LoginPath, c.Auth.HandleLogin)
		r.Post("/admin/logout", c.Auth.HandleLogout)
		r.With(validate).Get("/admin/api/session", c.Admin.Session)

		r.Group(func(r chi.Router) {
			r.Use(c.AuthMiddleware.Middleware())
			r.Get("/admin", func(w http.ResponseWriter, req *http.Request) {
				http.Redirect(w, req, "/admin/", http.StatusMovedPermanently)
			})
			r.Get("/admin/", c.Dashboard.HandleDashboard)
			r.Post("/admin/collections/{kind}", c.Dashboard.HandleSaveCollection)
			r.With(validate).Put("/admin/api/collections/{kind}", c.Admin.ReplaceCollection)
		})
	})

	router.NotFound(uihandlers.NotFoundHandler(logger))

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
