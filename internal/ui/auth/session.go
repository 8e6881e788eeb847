// Пакет auth — аутентификация администратора галереи.
// Пароль проверяется на сервере (bcrypt), результат хранится
// в зашифрованном cookie (AES-256-GCM) и служит лишь кэшем права доступа.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Имя cookie для зашифрованной админ-сессии.
const SessionCookieName = "gallery_admin_session"

// Срок хранения cookie в браузере, если TTL сессии не ограничен (1 год).
const persistentCookieMaxAge = 365 * 24 * 60 * 60

// ErrSessionExpired — срок действия сессии истёк.
var ErrSessionExpired = errors.New("срок действия сессии истёк")

// SessionData — состояние админ-сессии, хранящееся в зашифрованном cookie.
type SessionData struct {
	// Authenticated — флаг аутентификации администратора.
	Authenticated bool `json:"authenticated"`
	// IssuedAt — время входа (Unix timestamp).
	IssuedAt int64 `json:"issued_at"`
	// ExpiresAt — время истечения (Unix timestamp), 0 — без срока действия.
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// IsExpired проверяет, истекла ли сессия на момент now.
func (s *SessionData) IsExpired(now time.Time) bool {
	return s.ExpiresAt != 0 && now.Unix() >= s.ExpiresAt
}

// SessionManager шифрует/дешифрует SessionData в HTTP cookies через AES-256-GCM.
type SessionManager struct {
	gcm    cipher.AEAD
	secure bool
	// ttl — время жизни сессии, 0 — до явного logout.
	ttl time.Duration
	now func() time.Time
}

// NewSessionManager создаёт новый менеджер сессий.
// key — 32-байтовый ключ (base64) или произвольная строка (хешируется SHA-256).
// Если key пустой — генерируется случайный ключ (непостоянный между рестартами).
func NewSessionManager(key string, secure bool, ttl time.Duration) (*SessionManager, error) {
	var keyBytes []byte

	if key == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(key)
		if err != nil || len(keyBytes) != 32 {
			keyBytes = sha256Key(key)
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &SessionManager{
		gcm:    gcm,
		secure: secure,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// NewSession создаёт данные аутентифицированной сессии с учётом TTL.
func (sm *SessionManager) NewSession() *SessionData {
	now := sm.now()
	data := &SessionData{
		Authenticated: true,
		IssuedAt:      now.Unix(),
	}
	if sm.ttl > 0 {
		data.ExpiresAt = now.Add(sm.ttl).Unix()
	}
	return data
}

// Encrypt шифрует SessionData и возвращает base64-строку.
func (sm *SessionManager) Encrypt(data *SessionData) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	nonce := make([]byte, sm.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	// nonce prepended к ciphertext
	ciphertext := sm.gcm.Seal(nonce, nonce, plaintext, nil)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt дешифрует base64-строку обратно в SessionData.
func (sm *SessionManager) Decrypt(encrypted string) (*SessionData, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := sm.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := sm.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var data SessionData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}

	return &data, nil
}

// SetSessionCookie устанавливает зашифрованный session cookie в ответ.
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, data *SessionData) error {
	encrypted, err := sm.Encrypt(data)
	if err != nil {
		return err
	}

	maxAge := persistentCookieMaxAge
	if sm.ttl > 0 {
		maxAge = int(sm.ttl.Seconds())
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encrypted,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// GetSessionFromRequest извлекает и дешифрует SessionData из cookie запроса.
// Возвращает nil, nil если cookie отсутствует и ErrSessionExpired для истёкшей сессии.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) (*SessionData, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	data, err := sm.Decrypt(cookie.Value)
	if err != nil {
		return nil, err
	}
	if data.IsExpired(sm.now()) {
		return nil, ErrSessionExpired
	}
	return data, nil
}

// ClearSessionCookie удаляет session cookie из ответа (logout).
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// sha256Key хеширует строковый ключ в 32 bytes через SHA-256.
func sha256Key(key string) []byte {
	h := sha256.Sum256([]byte(key))
	return h[:]
}
