// Пакет config — загрузка и валидация конфигурации App Gallery
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Поддерживаемые backend'ы blob-хранилища.
const (
	BlobBackendHTTP     = "http"
	BlobBackendPostgres = "postgres"
	BlobBackendSQLite   = "sqlite"
)

// Config содержит все параметры конфигурации App Gallery.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Язык UI по умолчанию (en, ru)
	DefaultLang string

	// --- Админ-доступ ---

	// Пароль администратора в открытом виде (хешируется bcrypt при старте)
	AdminPassword string
	// bcrypt-хеш пароля администратора (приоритетнее AdminPassword)
	AdminPasswordHash string
	// Ключ шифрования cookie сессии (пустой — случайный ключ на время жизни процесса)
	SessionSecret string
	// Время жизни админ-сессии (0 — без ограничения, до явного logout)
	SessionTTL time.Duration
	// Secure flag для cookie
	SecureCookie bool

	// --- Blob-хранилище ---

	// Backend: http, postgres, sqlite
	BlobBackend string
	// Базовый URL удалённого blob API (backend=http)
	BlobURL string
	// Секрет для подписи service-токенов blob API (HS256, опционально)
	BlobTokenSecret string
	// Время жизни service-токена
	BlobTokenTTL time.Duration
	// Путь к CA-сертификату blob API (опционально)
	BlobCACertPath string
	// Таймаут HTTP-запросов к blob API
	BlobTimeout time.Duration

	// --- PostgreSQL (backend=postgres) ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// --- SQLite (backend=sqlite) ---

	// Путь к файлу базы SQLite
	SQLitePath string

	// --- Кэш каталога ---

	// Максимальное количество коллекций в LRU-кэше
	CacheSize int
	// TTL записи кэша
	CacheTTL time.Duration

	// --- Изображения ---

	// Разрешённые удалённые источники изображений (CSV, формат https://host/path/**)
	ImageRemotePatterns []string
	// Путь к YAML-файлу политики изображений (опционально)
	ImagePolicyFile string

	// --- topologymetrics ---

	// Группа в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию веб-сервера галереи.
// Помимо общих параметров требует пароль администратора.
func Load() (*Config, error) {
	cfg, err := loadCommon()
	if err != nil {
		return nil, err
	}

	// --- Админ-доступ ---

	cfg.AdminPassword = os.Getenv("GL_ADMIN_PASSWORD")
	cfg.AdminPasswordHash = os.Getenv("GL_ADMIN_PASSWORD_HASH")
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		return nil, fmt.Errorf("GL_ADMIN_PASSWORD или GL_ADMIN_PASSWORD_HASH: обязательная переменная окружения не задана")
	}

	cfg.SessionSecret = os.Getenv("GL_SESSION_SECRET")

	// GL_SESSION_TTL — 0 означает сессию без срока действия
	cfg.SessionTTL, err = getEnvDuration("GL_SESSION_TTL", 0)
	if err != nil {
		return nil, fmt.Errorf("GL_SESSION_TTL: %w", err)
	}
	if cfg.SessionTTL < 0 {
		return nil, fmt.Errorf("GL_SESSION_TTL: отрицательное значение %s", cfg.SessionTTL)
	}

	cfg.SecureCookie, err = getEnvBool("GL_SECURE_COOKIE", false)
	if err != nil {
		return nil, fmt.Errorf("GL_SECURE_COOKIE: %w", err)
	}

	return cfg, nil
}

// LoadForMigration загружает конфигурацию утилиты миграции каталога.
// Пароль администратора не требуется.
func LoadForMigration() (*Config, error) {
	return loadCommon()
}

// loadCommon загружает параметры, общие для сервера и утилиты миграции.
func loadCommon() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// GL_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("GL_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("GL_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("GL_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("GL_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("GL_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("GL_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("GL_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	cfg.DefaultLang = getEnvDefault("GL_DEFAULT_LANG", "en")
	if cfg.DefaultLang != "en" && cfg.DefaultLang != "ru" {
		return nil, fmt.Errorf("GL_DEFAULT_LANG: недопустимое значение %q, допустимые: en, ru", cfg.DefaultLang)
	}

	// --- Blob-хранилище ---

	cfg.BlobBackend = getEnvDefault("GL_BLOB_BACKEND", BlobBackendHTTP)
	switch cfg.BlobBackend {
	case BlobBackendHTTP:
		cfg.BlobURL, err = getEnvRequired("GL_BLOB_URL")
		if err != nil {
			return nil, err
		}
		cfg.BlobURL = strings.TrimRight(cfg.BlobURL, "/")
		if _, parseErr := url.ParseRequestURI(cfg.BlobURL); parseErr != nil {
			return nil, fmt.Errorf("GL_BLOB_URL: некорректный URL %q", cfg.BlobURL)
		}
	case BlobBackendPostgres:
		if err := loadDatabase(cfg); err != nil {
			return nil, err
		}
	case BlobBackendSQLite:
		cfg.SQLitePath = getEnvDefault("GL_SQLITE_PATH", "data/gallery.db")
	default:
		return nil, fmt.Errorf("GL_BLOB_BACKEND: недопустимое значение %q, допустимые: http, postgres, sqlite", cfg.BlobBackend)
	}

	cfg.BlobTokenSecret = os.Getenv("GL_BLOB_TOKEN_SECRET")

	cfg.BlobTokenTTL, err = getEnvDuration("GL_BLOB_TOKEN_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("GL_BLOB_TOKEN_TTL: %w", err)
	}
	if cfg.BlobTokenTTL <= 0 {
		return nil, fmt.Errorf("GL_BLOB_TOKEN_TTL: значение должно быть положительным, получено %s", cfg.BlobTokenTTL)
	}

	cfg.BlobCACertPath = os.Getenv("GL_BLOB_CA_CERT_PATH")

	cfg.BlobTimeout, err = getEnvDuration("GL_BLOB_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GL_BLOB_TIMEOUT: %w", err)
	}

	// --- Кэш каталога ---

	cfg.CacheSize, err = getEnvInt("GL_CACHE_SIZE", 16)
	if err != nil {
		return nil, fmt.Errorf("GL_CACHE_SIZE: %w", err)
	}
	if cfg.CacheSize < 1 {
		return nil, fmt.Errorf("GL_CACHE_SIZE: значение %d должно быть больше 0", cfg.CacheSize)
	}

	cfg.CacheTTL, err = getEnvDuration("GL_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("GL_CACHE_TTL: %w", err)
	}

	// --- Изображения ---

	cfg.ImageRemotePatterns = parseCSV(getEnvDefault("GL_IMAGE_REMOTE_PATTERNS",
		"https://images.unsplash.com/**,https://avatars.githubusercontent.com/**"))
	cfg.ImagePolicyFile = os.Getenv("GL_IMAGE_POLICY_FILE")

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("GL_DEPHEALTH_GROUP", "appgallery")

	cfg.DephealthCheckInterval, err = getEnvDuration("GL_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GL_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("GL_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("GL_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadDatabase загружает параметры PostgreSQL (backend=postgres).
func loadDatabase(cfg *Config) error {
	var err error

	if cfg.DBHost, err = getEnvRequired("GL_DB_HOST"); err != nil {
		return err
	}

	cfg.DBPort, err = getEnvInt("GL_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("GL_DB_PORT: %w", err)
	}

	if cfg.DBName, err = getEnvRequired("GL_DB_NAME"); err != nil {
		return err
	}
	if cfg.DBUser, err = getEnvRequired("GL_DB_USER"); err != nil {
		return err
	}
	if cfg.DBPassword, err = getEnvRequired("GL_DB_PASSWORD"); err != nil {
		return err
	}

	cfg.DBSSLMode = getEnvDefault("GL_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("GL_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	return nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL (для golang-migrate и лейблов topologymetrics).
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
