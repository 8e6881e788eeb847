// Пакет gatekeeper — перехват запросов до маршрутизации.
// Публичные пути (ассеты, публичный API, служебные файлы) пропускаются сразу,
// остальные передаются в Policy. Gatekeeper никогда не отклоняет запрос сам.
package gatekeeper

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Публичные префиксы путей (проверяются в порядке объявления).
var publicPrefixes = []string{
	"/_app/",       // внутренние ресурсы приложения
	"/static/",     // статические ассеты
	"/images/",     // изображения
	"/api/public/", // публичный API
}

// Публичные служебные файлы (точное совпадение).
var publicFiles = map[string]struct{}{
	"/manifest.json": {},
	"/favicon.ico":   {},
	"/robots.txt":    {},
	"/sitemap.xml":   {},
}

var (
	iconPattern      = regexp.MustCompile(`^/icon(-\d+x\d+\.png)?$`)
	appleIconPattern = regexp.MustCompile(`^/apple-icon(-\d+x\d+\.png)?$`)
)

// Решения gatekeeper для метрик.
const (
	decisionPublic = "public"
	decisionPolicy = "policy"
)

var decisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gl_gatekeeper_decisions_total",
		Help: "Количество запросов, обработанных gatekeeper, по типу решения",
	},
	[]string{"decision"},
)

// IsPublic сообщает, является ли путь безусловно публичным.
func IsPublic(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if _, ok := publicFiles[path]; ok {
		return true
	}
	return iconPattern.MatchString(path) || appleIconPattern.MatchString(path)
}

// Policy — политика для непубличных путей.
type Policy interface {
	Handle(next http.Handler) http.Handler
}

// PolicyFunc — адаптер функции к Policy.
type PolicyFunc func(next http.Handler) http.Handler

// Handle вызывает f(next).
func (f PolicyFunc) Handle(next http.Handler) http.Handler {
	return f(next)
}

// PassThrough — политика-заглушка: пропускает любой запрос без проверок.
// Правила ограничения доступа для непубличных путей пока не определены.
var PassThrough Policy = PolicyFunc(func(next http.Handler) http.Handler { return next })

// Gatekeeper — middleware, разделяющее публичные пути и пути под политикой.
type Gatekeeper struct {
	policy Policy
	logger *slog.Logger
}

// New создаёт Gatekeeper. nil policy заменяется на PassThrough.
func New(policy Policy, logger *slog.Logger) *Gatekeeper {
	if policy == nil {
		policy = PassThrough
	}
	return &Gatekeeper{
		policy: policy,
		logger: logger.With(slog.String("component", "gatekeeper")),
	}
}

// Middleware возвращает HTTP middleware gatekeeper.
func (g *Gatekeeper) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := g.policy.Handle(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublic(r.URL.Path) {
				decisionsTotal.WithLabelValues(decisionPublic).Inc()
				next.ServeHTTP(w, r)
				return
			}

			decisionsTotal.WithLabelValues(decisionPolicy).Inc()
			g.logger.Debug("Путь передан в политику доступа", slog.String("path", r.URL.Path))
			guarded.ServeHTTP(w, r)
		})
	}
}
