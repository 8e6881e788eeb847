package i18n

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRegistryNext_Cycle(t *testing.T) {
	codes := DefaultRegistry.Codes()

	for i, code := range codes {
		want := codes[(i+1)%len(codes)]
		if got := DefaultRegistry.Next(code); got != want {
			t.Errorf("Next(%q) = %q, ожидается %q", code, got, want)
		}
	}

	// Применение Next count раз возвращает исходный язык
	for _, code := range codes {
		cur := code
		for range codes {
			cur = DefaultRegistry.Next(cur)
		}
		if cur != code {
			t.Errorf("после %d переключений из %q получено %q", len(codes), code, cur)
		}
	}
}

func TestRegistryNext_ThreeLanguages(t *testing.T) {
	r := NewRegistry(
		Language{Code: "en", Name: "English"},
		Language{Code: "ru", Name: "Русский"},
		Language{Code: "de", Name: "Deutsch"},
	)

	if got := r.Next("ru"); got != "de" {
		t.Errorf("Next(ru) = %q, ожидается de", got)
	}
	// Последний язык переходит на первый
	if got := r.Next("de"); got != "en" {
		t.Errorf("Next(de) = %q, ожидается en", got)
	}
}

func TestRegistryNext_UnknownCode(t *testing.T) {
	// Неизвестный код трактуется как индекс -1 → первый язык реестра
	if got := DefaultRegistry.Next("fr"); got != "en" {
		t.Errorf("Next(fr) = %q, ожидается en", got)
	}
	if got := DefaultRegistry.Next(""); got != "en" {
		t.Errorf("Next(\"\") = %q, ожидается en", got)
	}
}

func TestRegistryNext_Empty(t *testing.T) {
	r := NewRegistry()
	if got := r.Next("en"); got != "en" {
		t.Errorf("Next на пустом реестре = %q, ожидается en", got)
	}
}

func TestRegistryName(t *testing.T) {
	if got := DefaultRegistry.Name("ru"); got != "Русский" {
		t.Errorf("Name(ru) = %q", got)
	}
	if got := DefaultRegistry.Name("xx"); got != "xx" {
		t.Errorf("Name(xx) = %q, ожидается сам код", got)
	}
}

func TestBundleTranslate_Fallback(t *testing.T) {
	b := NewBundle(testLogger())
	if err := b.LoadMessages("en", []byte(`{"a":"A-en","b":"B-en"}`)); err != nil {
		t.Fatal(err)
	}
	if err := b.LoadMessages("ru", []byte(`{"a":"A-ru"}`)); err != nil {
		t.Fatal(err)
	}

	if got := b.Translate("ru", "a"); got != "A-ru" {
		t.Errorf("Translate(ru, a) = %q", got)
	}
	if got := b.Translate("ru", "b"); got != "B-en" {
		t.Errorf("Translate(ru, b) = %q, ожидается fallback на en", got)
	}
	if got := b.Translate("ru", "missing"); got != "missing" {
		t.Errorf("Translate(ru, missing) = %q, ожидается ключ", got)
	}
	if got := b.Translatef("en", "a"); got != "A-en" {
		t.Errorf("Translatef без аргументов = %q", got)
	}
}

func TestBundleLoadMessages_InvalidJSON(t *testing.T) {
	b := NewBundle(nil)
	if err := b.LoadMessages("en", []byte(`[1,2`)); err == nil {
		t.Error("ожидалась ошибка парсинга каталога")
	}
}

func TestLoadFromEmbedFS_CatalogsConsistent(t *testing.T) {
	b := NewBundle(nil)
	if err := LoadFromEmbedFS(b, testLogger()); err != nil {
		t.Fatalf("LoadFromEmbedFS: %v", err)
	}

	// Каждый ключ английского каталога переведён на все языки реестра
	for key := range b.catalogs["en"] {
		for _, lang := range DefaultRegistry.Codes() {
			if _, ok := b.catalogs[lang][key]; !ok {
				t.Errorf("ключ %q отсутствует в каталоге %s", key, lang)
			}
		}
	}
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		accept string
		want   string
	}{
		{"ru-RU,ru;q=0.9,en;q=0.8", "ru"},
		{"en-US,en;q=0.9", "en"},
		{"de-DE", "en"},
		{"", "en"},
	}
	for _, tt := range tests {
		if got := MatchLanguage(tt.accept); got != tt.want {
			t.Errorf("MatchLanguage(%q) = %q, ожидается %q", tt.accept, got, tt.want)
		}
	}
}

func TestMiddleware_Priority(t *testing.T) {
	tests := []struct {
		name       string
		cookie     string
		accept     string
		defaultLng string
		want       string
	}{
		{"cookie важнее Accept-Language", "ru", "en-US", "en", "ru"},
		{"неизвестный cookie игнорируется", "fr", "ru", "en", "ru"},
		{"Accept-Language", "", "ru-RU", "en", "ru"},
		{"язык по умолчанию", "", "", "ru", "ru"},
		{"неподдерживаемый язык по умолчанию", "", "", "de", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Middleware(tt.defaultLng)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = LangFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LangCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("язык = %q, ожидается %q", got, tt.want)
			}
		})
	}
}

func TestLangFromContext_Default(t *testing.T) {
	if got := LangFromContext(context.Background()); got != FallbackLang {
		t.Errorf("LangFromContext(пустой) = %q", got)
	}
}
