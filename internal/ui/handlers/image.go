// image.go — прокси удалённых изображений (/_image?url=...).
// Загружаются только URL, разрешённые политикой изображений,
// в том числе после каждого redirect.
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/bigkaa/appgallery/internal/api/errors"
	"github.com/bigkaa/appgallery/internal/imagepolicy"
)

// maxImageSize — максимальный размер проксируемого изображения (10 MiB).
const maxImageSize = 10 << 20

// maxImageRedirects — максимальное число redirect при загрузке изображения.
const maxImageRedirects = 5

// imageCacheControl — кэширование изображений в браузере и CDN.
const imageCacheControl = "public, max-age=86400"

// errRedirectNotAllowed — redirect ведёт на источник вне политики.
var errRedirectNotAllowed = errors.New("redirect на источник вне политики изображений")

// ImageProxy — обработчик /_image.
type ImageProxy struct {
	policy *imagepolicy.Policy
	client *http.Client
	logger *slog.Logger
}

// NewImageProxy создаёт прокси изображений. client == nil — клиент с таймаутом 15s.
// Клиент копируется: redirect разрешены только на URL из политики.
func NewImageProxy(policy *imagepolicy.Policy, client *http.Client, logger *slog.Logger) *ImageProxy {
	var c http.Client
	if client != nil {
		c = *client
	} else {
		c.Timeout = 15 * time.Second
	}
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxImageRedirects {
			return fmt.Errorf("превышено число redirect (%d)", maxImageRedirects)
		}
		if !policy.Allowed(req.URL.String()) {
			return errRedirectNotAllowed
		}
		return nil
	}

	return &ImageProxy{
		policy: policy,
		client: &c,
		logger: logger.With(slog.String("component", "image_proxy")),
	}
}

// ServeHTTP обрабатывает GET /_image?url=...
func (p *ImageProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("url")
	if src == "" {
		apierrors.ValidationError(w, "Параметр url обязателен")
		return
	}
	if !p.policy.Allowed(src) {
		apierrors.ImageNotAllowed(w, "Источник изображения не разрешён политикой")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, src, nil)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный url")
		return
	}
	req.Header.Set("Accept", "image/*")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("Ошибка загрузки изображения",
			slog.String("url", src),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, errRedirectNotAllowed) {
			apierrors.ImageNotAllowed(w, "Redirect источника изображения не разрешён политикой")
			return
		}
		apierrors.UpstreamImageError(w, "Источник изображения недоступен")
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode != http.StatusOK || !allowedImageType(contentType) {
		p.logger.Warn("Источник вернул недопустимый ответ",
			slog.String("url", src),
			slog.Int("status", resp.StatusCode),
			slog.String("content_type", contentType),
		)
		apierrors.UpstreamImageError(w,
			fmt.Sprintf("Источник изображения вернул статус %d, тип %q", resp.StatusCode, contentType))
		return
	}

	if resp.ContentLength > maxImageSize {
		apierrors.UpstreamImageError(w, "Изображение слишком большое")
		return
	}

	// Тело читается целиком до записи статуса: превышение лимита — 502.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		p.logger.Warn("Ошибка чтения изображения",
			slog.String("url", src),
			slog.String("error", err.Error()),
		)
		apierrors.UpstreamImageError(w, "Ошибка чтения изображения")
		return
	}
	if len(data) > maxImageSize {
		apierrors.UpstreamImageError(w, "Изображение слишком большое")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.Header().Set("Cache-Control", imageCacheControl)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		p.logger.Debug("Прерывание передачи изображения", slog.String("error", err.Error()))
	}
}

// allowedImageType разрешает растровые image/*; SVG может содержать скрипты.
func allowedImageType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/") && mediaType != "image/svg+xml"
}
