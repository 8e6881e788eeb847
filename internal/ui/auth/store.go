// store.go — хранилище админ-сессии: login/logout поверх SessionManager.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// Authenticator проверяет пароль администратора по bcrypt-хешу.
type Authenticator struct {
	hash []byte
}

// NewAuthenticator создаёт Authenticator.
// Если passwordHash пустой — хеш вычисляется из plaintext-пароля.
func NewAuthenticator(password, passwordHash string) (*Authenticator, error) {
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("некорректный bcrypt-хеш пароля администратора: %w", err)
		}
		return &Authenticator{hash: []byte(passwordHash)}, nil
	}
	if password == "" {
		return nil, fmt.Errorf("пароль администратора не задан")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля администратора: %w", err)
	}
	return &Authenticator{hash: hash}, nil
}

// Verify возвращает true, если пароль совпадает. Неверный пароль — не ошибка.
func (a *Authenticator) Verify(password string) bool {
	return bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
}

// Store — хранилище админ-сессии. Состояние живёт в cookie клиента,
// источником истины остаётся проверка пароля на сервере.
type Store struct {
	authenticator *Authenticator
	sessions      *SessionManager
	logger        *slog.Logger
}

// NewStore создаёт хранилище админ-сессии.
func NewStore(authenticator *Authenticator, sessions *SessionManager, logger *slog.Logger) *Store {
	return &Store{
		authenticator: authenticator,
		sessions:      sessions,
		logger:        logger.With(slog.String("component", "admin_session")),
	}
}

// Login проверяет пароль и при совпадении выставляет cookie сессии.
// При неверном пароле состояние не меняется, возвращается false.
func (s *Store) Login(w http.ResponseWriter, r *http.Request, password string) bool {
	if !s.authenticator.Verify(password) {
		s.logger.Warn("Неудачная попытка входа администратора",
			slog.String("remote_addr", r.RemoteAddr),
		)
		return false
	}

	if err := s.sessions.SetSessionCookie(w, s.sessions.NewSession()); err != nil {
		s.logger.Error("Ошибка создания админ-сессии", slog.String("error", err.Error()))
		return false
	}

	s.logger.Info("Администратор вошёл в систему", slog.String("remote_addr", r.RemoteAddr))
	return true
}

// Logout безусловно сбрасывает сессию. Повторный вызов ничего не меняет.
func (s *Store) Logout(w http.ResponseWriter) {
	s.sessions.ClearSessionCookie(w)
}

// IsAuthenticated проверяет, аутентифицирован ли запрос.
// Отсутствующий, повреждённый или истёкший cookie — false.
func (s *Store) IsAuthenticated(r *http.Request) bool {
	session, err := s.sessions.GetSessionFromRequest(r)
	if err != nil {
		s.logger.Debug("Ошибка чтения админ-сессии", slog.String("error", err.Error()))
		return false
	}
	return session != nil && session.Authenticated
}

// Sessions возвращает менеджер сессий (для middleware).
func (s *Store) Sessions() *SessionManager {
	return s.sessions
}
