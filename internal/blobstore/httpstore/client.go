// Пакет httpstore — HTTP-клиент удалённого blob API.
// Поддерживает TLS с кастомным CA (GL_BLOB_CA_CERT_PATH) и Bearer-токены.
// Операции: Get (GET /api/v1/blobs/{key}), Put (PUT /api/v1/blobs/{key}),
// Ping (GET /health/ready).
package httpstore

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bigkaa/appgallery/internal/blobstore"
)

// backendName — значение лейбла backend в метриках.
const backendName = "http"

// maxBlobSize — максимальный размер читаемого блоба (32 MiB).
const maxBlobSize = 32 << 20

// TokenProvider — функция, возвращающая токен для авторизации запросов к blob API.
type TokenProvider func(ctx context.Context) (string, error)

// Client — HTTP-клиент blob API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokenProvider TokenProvider
	logger        *slog.Logger
}

// Options — параметры создания клиента.
type Options struct {
	// BaseURL — базовый URL blob API.
	BaseURL string
	// CACertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
	CACertPath string
	// Timeout — таймаут одного HTTP-запроса.
	Timeout time.Duration
	// TokenProvider — источник Bearer-токенов (nil — без авторизации).
	TokenProvider TokenProvider
}

// New создаёт клиент blob API.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	if opts.CACertPath != "" {
		tlsConfig, err := buildTLSConfig(opts.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата blob API: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат blob API добавлен в пул доверия",
			slog.String("ca_cert", opts.CACertPath),
		)
	}

	return &Client{
		baseURL:       normalizeURL(opts.BaseURL),
		httpClient:    httpClient,
		tokenProvider: opts.TokenProvider,
		logger:        logger.With(slog.String("component", "blob_client")),
	}, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}

// Get скачивает блоб по ключу.
func (c *Client) Get(ctx context.Context, key string) (data []byte, err error) {
	defer func() { blobstore.Observe(backendName, blobstore.OpGet, err) }()

	if err := blobstore.ValidateKey(key); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.blobURL(key), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос Get %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, blobstore.ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("blob API Get %s вернул статус %d: %s", key, resp.StatusCode, string(body))
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxBlobSize+1))
	if err != nil {
		return nil, fmt.Errorf("чтение блоба %s: %w", key, err)
	}
	if len(data) > maxBlobSize {
		return nil, fmt.Errorf("блоб %s превышает %d байт", key, maxBlobSize)
	}
	return data, nil
}

// Put загружает блоб по ключу (создание или перезапись).
func (c *Client) Put(ctx context.Context, key string, data []byte) (err error) {
	defer func() { blobstore.Observe(backendName, blobstore.OpPut, err) }()

	if err := blobstore.ValidateKey(key); err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.blobURL(key), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос Put %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("blob API Put %s вернул статус %d: %s", key, resp.StatusCode, string(body))
	}

	c.logger.Debug("Блоб сохранён",
		slog.String("key", key),
		slog.Int("bytes", len(data)),
	)
	return nil
}

// Ping проверяет готовность blob API (GET /health/ready, без авторизации).
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health/ready", nil)
	if err != nil {
		return fmt.Errorf("создание запроса Ping: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос Ping к %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("blob API %s вернул статус %d", c.baseURL, resp.StatusCode)
	}
	return nil
}

// HealthURL возвращает URL readiness endpoint blob API (для topologymetrics).
func (c *Client) HealthURL() string {
	return c.baseURL + "/health/ready"
}

// newRequest создаёт запрос с авторизацией (если задан TokenProvider).
func (c *Client) newRequest(ctx context.Context, method, reqURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("создание запроса %s: %w", method, err)
	}

	if c.tokenProvider != nil {
		token, err := c.tokenProvider(ctx)
		if err != nil {
			return nil, fmt.Errorf("получение токена для blob API: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// blobURL возвращает URL блоба.
func (c *Client) blobURL(key string) string {
	return c.baseURL + "/api/v1/blobs/" + url.PathEscape(key)
}

// normalizeURL убирает trailing slash из URL.
func normalizeURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}
