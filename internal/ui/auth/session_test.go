package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestSessionEncryptDecryptRoundTrip проверяет шифрование и дешифрование SessionData.
func TestSessionEncryptDecryptRoundTrip(t *testing.T) {
	sm, err := NewSessionManager("", false, 0)
	if err != nil {
		t.Fatalf("Ошибка создания SessionManager: %v", err)
	}

	original := &SessionData{
		Authenticated: true,
		IssuedAt:      time.Now().Unix(),
		ExpiresAt:     time.Now().Add(time.Hour).Unix(),
	}

	encrypted, err := sm.Encrypt(original)
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}
	if encrypted == "" {
		t.Fatal("Зашифрованная строка пустая")
	}

	decrypted, err := sm.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Ошибка дешифрования: %v", err)
	}
	if *decrypted != *original {
		t.Errorf("SessionData: want %+v, got %+v", original, decrypted)
	}
}

// TestSessionDecryptWithWrongKey проверяет, что cookie нельзя подделать чужим ключом.
func TestSessionDecryptWithWrongKey(t *testing.T) {
	sm1, _ := NewSessionManager("key-one", false, 0)
	sm2, _ := NewSessionManager("key-two", false, 0)

	encrypted, err := sm1.Encrypt(&SessionData{Authenticated: true})
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}

	if _, err := sm2.Decrypt(encrypted); err == nil {
		t.Error("Ожидалась ошибка при дешифровании чужим ключом")
	}
}

// TestSessionDecryptGarbage проверяет обработку мусорного cookie.
func TestSessionDecryptGarbage(t *testing.T) {
	sm, _ := NewSessionManager("key", false, 0)

	for _, v := range []string{"", "not-base64!!", "YWJj"} {
		if _, err := sm.Decrypt(v); err == nil {
			t.Errorf("Decrypt(%q): ожидалась ошибка", v)
		}
	}
}

// TestNewSession_TTL проверяет вычисление срока действия сессии.
func TestNewSession_TTL(t *testing.T) {
	fixed := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	unlimited, _ := NewSessionManager("key", false, 0)
	unlimited.now = func() time.Time { return fixed }
	s := unlimited.NewSession()
	if !s.Authenticated || s.ExpiresAt != 0 {
		t.Errorf("сессия без TTL: %+v", s)
	}
	if s.IsExpired(fixed.Add(10 * 365 * 24 * time.Hour)) {
		t.Error("сессия без TTL не должна истекать")
	}

	limited, _ := NewSessionManager("key", false, time.Hour)
	limited.now = func() time.Time { return fixed }
	s = limited.NewSession()
	if s.ExpiresAt != fixed.Add(time.Hour).Unix() {
		t.Errorf("ExpiresAt = %d, ожидается %d", s.ExpiresAt, fixed.Add(time.Hour).Unix())
	}
	if s.IsExpired(fixed.Add(59 * time.Minute)) {
		t.Error("сессия не должна истечь раньше TTL")
	}
	if !s.IsExpired(fixed.Add(time.Hour)) {
		t.Error("сессия должна истечь по TTL")
	}
}

// TestSessionCookieSetAndGet проверяет установку и извлечение cookie.
func TestSessionCookieSetAndGet(t *testing.T) {
	sm, _ := NewSessionManager("test-key", false, 0)

	w := httptest.NewRecorder()
	if err := sm.SetSessionCookie(w, sm.NewSession()); err != nil {
		t.Fatalf("Ошибка установки cookie: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Cookie не установлен")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(cookies[0])

	got, err := sm.GetSessionFromRequest(req)
	if err != nil {
		t.Fatalf("Ошибка чтения сессии из cookie: %v", err)
	}
	if got == nil || !got.Authenticated {
		t.Fatalf("Сессия не найдена или не аутентифицирована: %+v", got)
	}

	cookie := cookies[0]
	if cookie.Name != SessionCookieName {
		t.Errorf("Cookie name: want %q, got %q", SessionCookieName, cookie.Name)
	}
	if cookie.Path != "/" {
		t.Errorf("Cookie path: want %q, got %q", "/", cookie.Path)
	}
	if cookie.MaxAge != persistentCookieMaxAge {
		t.Errorf("MaxAge: want %d, got %d", persistentCookieMaxAge, cookie.MaxAge)
	}
	if !cookie.HttpOnly {
		t.Error("Cookie должен быть HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Error("Cookie должен быть SameSite=Lax")
	}
}

// TestSessionCookieExpired проверяет, что истёкшая сессия не принимается.
func TestSessionCookieExpired(t *testing.T) {
	sm, _ := NewSessionManager("test-key", false, time.Minute)

	w := httptest.NewRecorder()
	if err := sm.SetSessionCookie(w, sm.NewSession()); err != nil {
		t.Fatal(err)
	}

	sm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(w.Result().Cookies()[0])

	if _, err := sm.GetSessionFromRequest(req); err != ErrSessionExpired {
		t.Errorf("ожидалась ErrSessionExpired, получено %v", err)
	}
}

// TestSessionCookieMissing проверяет, что отсутствие cookie возвращает nil, nil.
func TestSessionCookieMissing(t *testing.T) {
	sm, _ := NewSessionManager("test-key", false, 0)

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	data, err := sm.GetSessionFromRequest(req)
	if err != nil {
		t.Fatalf("Ожидалось nil error, получено: %v", err)
	}
	if data != nil {
		t.Error("Ожидалось nil data при отсутствии cookie")
	}
}

// --- Store ---

func newTestStore(t *testing.T) *Store {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a, err := NewAuthenticator("", string(hash))
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	sm, _ := NewSessionManager("store-key", false, 0)
	return NewStore(a, sm, testLogger())
}

// requestWith создаёт запрос с cookies из ответа.
func requestWith(cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	for _, c := range cookies {
		if c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return req
}

func TestStoreLogin_CorrectPassword(t *testing.T) {
	store := newTestStore(t)

	w := httptest.NewRecorder()
	if !store.Login(w, httptest.NewRequest(http.MethodPost, "/admin/login", nil), "s3cret") {
		t.Fatal("Login с верным паролем должен вернуть true")
	}

	if !store.IsAuthenticated(requestWith(w.Result().Cookies())) {
		t.Error("после Login запрос должен быть аутентифицирован")
	}
}

func TestStoreLogin_WrongPasswordLeavesStateUnchanged(t *testing.T) {
	store := newTestStore(t)

	for _, pw := range []string{"", "S3CRET", "s3cret ", "wrong"} {
		// Неаутентифицированный клиент остаётся неаутентифицированным
		w := httptest.NewRecorder()
		if store.Login(w, httptest.NewRequest(http.MethodPost, "/admin/login", nil), pw) {
			t.Errorf("Login(%q) должен вернуть false", pw)
		}
		if len(w.Result().Cookies()) != 0 {
			t.Errorf("Login(%q) не должен выставлять cookie", pw)
		}
	}

	// Аутентифицированный клиент остаётся аутентифицированным
	w := httptest.NewRecorder()
	store.Login(w, httptest.NewRequest(http.MethodPost, "/admin/login", nil), "s3cret")
	cookies := w.Result().Cookies()

	w2 := httptest.NewRecorder()
	if store.Login(w2, requestWith(cookies), "wrong") {
		t.Fatal("Login с неверным паролем должен вернуть false")
	}
	if len(w2.Result().Cookies()) != 0 {
		t.Error("неудачный Login не должен трогать cookie")
	}
	if !store.IsAuthenticated(requestWith(cookies)) {
		t.Error("неудачный Login не должен сбрасывать существующую сессию")
	}
}

func TestStoreLogout_Idempotent(t *testing.T) {
	store := newTestStore(t)

	first := httptest.NewRecorder()
	store.Logout(first)
	second := httptest.NewRecorder()
	store.Logout(second)

	a := first.Header().Get("Set-Cookie")
	b := second.Header().Get("Set-Cookie")
	if a == "" || a != b {
		t.Errorf("повторный Logout должен давать тот же результат: %q vs %q", a, b)
	}

	// После Logout cookie удаляется — запрос без сессии
	if store.IsAuthenticated(requestWith(first.Result().Cookies())) {
		t.Error("после Logout запрос не должен быть аутентифицирован")
	}
}

func TestStoreIsAuthenticated_ForgedCookie(t *testing.T) {
	store := newTestStore(t)

	other, _ := NewSessionManager("attacker-key", false, 0)
	forged, _ := other.Encrypt(&SessionData{Authenticated: true})

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: forged})

	if store.IsAuthenticated(req) {
		t.Error("cookie, зашифрованный чужим ключом, не должен приниматься")
	}
}

func TestNewAuthenticator(t *testing.T) {
	a, err := NewAuthenticator("plain-pass", "")
	if err != nil {
		t.Fatalf("NewAuthenticator(plain): %v", err)
	}
	if !a.Verify("plain-pass") || a.Verify("other") {
		t.Error("Verify работает некорректно для plaintext-пароля")
	}

	if _, err := NewAuthenticator("", "not-a-bcrypt-hash"); err == nil {
		t.Error("ожидалась ошибка для некорректного хеша")
	}
	if _, err := NewAuthenticator("", ""); err == nil {
		t.Error("ожидалась ошибка без пароля")
	}
}
