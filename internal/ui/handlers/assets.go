// assets.go — служебные файлы сайта: manifest, robots, sitemap, иконки.
package handlers

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/bigkaa/appgallery/internal/ui/static"
)

// assetCacheControl — кэширование служебных файлов.
const assetCacheControl = "public, max-age=3600"

// iconSizePattern разбирает размер из /icon-NxN.png и /apple-icon-NxN.png.
var iconSizePattern = regexp.MustCompile(`^/(apple-icon|icon)-(\d{1,4})x(\d{1,4})\.png$`)

// sitemapPaths — публичные страницы для sitemap.xml.
var sitemapPaths = []string{"/"}

// AssetsHandler — обработчики служебных файлов сайта.
type AssetsHandler struct {
	logger *slog.Logger
}

// NewAssetsHandler создаёт новый AssetsHandler.
func NewAssetsHandler(logger *slog.Logger) *AssetsHandler {
	return &AssetsHandler{logger: logger.With(slog.String("component", "ui.assets"))}
}

// HandleManifest — GET /manifest.json.
func (h *AssetsHandler) HandleManifest(w http.ResponseWriter, r *http.Request) {
	h.serveEmbedded(w, "manifest.json", "application/manifest+json")
}

// HandleRobots — GET /robots.txt.
func (h *AssetsHandler) HandleRobots(w http.ResponseWriter, r *http.Request) {
	h.serveEmbedded(w, "robots.txt", "text/plain; charset=utf-8")
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// HandleSitemap — GET /sitemap.xml. Адреса строятся от хоста запроса.
func (h *AssetsHandler) HandleSitemap(w http.ResponseWriter, r *http.Request) {
	base := requestScheme(r) + "://" + r.Host

	set := sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, p := range sitemapPaths {
		set.URLs = append(set.URLs, sitemapURL{Loc: base + p})
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", assetCacheControl)
	_, _ = w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(set); err != nil {
		h.logger.Error("Ошибка формирования sitemap.xml", slog.String("error", err.Error()))
	}
}

// HandleFavicon — GET /favicon.ico.
func (h *AssetsHandler) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	data, err := static.FaviconICO()
	if err != nil {
		h.logger.Error("Ошибка генерации favicon", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeAsset(w, "image/x-icon", data)
}

// HandleIcon — GET /icon и /icon-NxN.png.
func (h *AssetsHandler) HandleIcon(w http.ResponseWriter, r *http.Request) {
	h.serveIcon(w, r, "/icon", static.DefaultIconSize)
}

// HandleAppleIcon — GET /apple-icon и /apple-icon-NxN.png.
func (h *AssetsHandler) HandleAppleIcon(w http.ResponseWriter, r *http.Request) {
	h.serveIcon(w, r, "/apple-icon", static.AppleIconSize)
}

// serveIcon отдаёт PNG-иконку. Для base — defaultSize, иначе размер из пути.
// Путь не вида base-NxN.png, неквадратный или неподдерживаемый размер — 404.
func (h *AssetsHandler) serveIcon(w http.ResponseWriter, r *http.Request, base string, defaultSize int) {
	size := defaultSize
	if r.URL.Path != base {
		m := iconSizePattern.FindStringSubmatch(r.URL.Path)
		if m == nil || m[1] != strings.TrimPrefix(base, "/") {
			http.NotFound(w, r)
			return
		}
		width, errW := strconv.Atoi(m[2])
		height, errH := strconv.Atoi(m[3])
		if errW != nil || errH != nil || width != height {
			http.NotFound(w, r)
			return
		}
		size = width
	}

	data, err := static.IconPNG(size)
	if err != nil {
		h.logger.Debug("Запрошен недопустимый размер иконки",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		http.NotFound(w, r)
		return
	}
	writeAsset(w, "image/png", data)
}

func (h *AssetsHandler) serveEmbedded(w http.ResponseWriter, name, contentType string) {
	data, err := static.ReadFile(name)
	if err != nil {
		h.logger.Error("Встроенный файл не найден",
			slog.String("file", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeAsset(w, contentType, data)
}

func writeAsset(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", assetCacheControl)
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	_, _ = w.Write(data)
}

// requestScheme определяет схему с учётом X-Forwarded-Proto.
func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
