// Пакет openapi — описание JSON API галереи (openapi.yaml) и
// middleware валидации запросов по нему.
package openapi

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	apierrors "github.com/bigkaa/appgallery/internal/api/errors"
)

//go:embed openapi.yaml
var specYAML []byte

// MaxBodySize — максимальный размер тела запроса, читаемого при валидации (8 MiB).
const MaxBodySize = 8 << 20

// Spec возвращает исходный текст openapi.yaml.
func Spec() []byte {
	return specYAML
}

// Load разбирает и проверяет встроенное описание API.
func Load(ctx context.Context) (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("разбор openapi.yaml: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("проверка openapi.yaml: %w", err)
	}
	return doc, nil
}

// Validator — проверка запросов к JSON API по openapi.yaml.
type Validator struct {
	router routers.Router
	logger *slog.Logger
}

// NewValidator загружает описание API и строит по нему маршрутизатор.
func NewValidator(ctx context.Context, logger *slog.Logger) (*Validator, error) {
	doc, err := Load(ctx)
	if err != nil {
		return nil, err
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("маршрутизатор openapi: %w", err)
	}
	return &Validator{
		router: router,
		logger: logger.With(slog.String("component", "openapi_validator")),
	}, nil
}

// Middleware возвращает HTTP middleware валидации.
// Запросы к операциям, не описанным в openapi.yaml, пропускаются без проверки.
// Нарушение схемы — 400 VALIDATION_ERROR, слишком большое тело — 413.
func (v *Validator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := v.router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				v.reject(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (v *Validator) reject(w http.ResponseWriter, r *http.Request, err error) {
	v.logger.Debug("Запрос не прошёл валидацию",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		apierrors.WriteError(w, http.StatusRequestEntityTooLarge, apierrors.CodeValidationError, "Тело запроса слишком большое")
		return
	}

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		apierrors.ValidationError(w, reqErr.Error())
		return
	}
	apierrors.ValidationError(w, err.Error())
}
