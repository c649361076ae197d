// Пакет session — браузерные сессии Web Client.
// Каждой сессии соответствует собственный controller.Controller
// (своё состояние страницы), сессии хранятся в LRU-кэше с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sanahegde/resmed-file-sharing-service/internal/controller"
)

// CookieName — имя cookie с идентификатором сессии.
const CookieName = "fw_session"

// Prometheus-метрики сессий.
var (
	sessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wc_sessions_created_total",
		Help: "Общее количество созданных браузерных сессий.",
	})
	sessionsEvictedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wc_sessions_evicted_total",
		Help: "Общее количество сессий, удалённых по TTL или размеру кэша.",
	})
)

type contextKey string

const contextKeyController contextKey = "session_controller"

// Factory создаёт Controller для новой сессии.
type Factory func() (*controller.Controller, error)

// renewWindow — сколько помнится замена истёкшей сессии на новую.
const renewWindow = 30 * time.Second

// Store — хранилище сессий: session ID → Controller.
type Store struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *controller.Controller]
	// renewed — истёкший session ID → ID выданной вместо него сессии.
	// Параллельные запросы с одной истёкшей cookie попадают в одну новую сессию.
	renewed *expirable.LRU[string, string]
	factory Factory
	ttl     time.Duration
	secure  bool
	logger  *slog.Logger
}

// NewStore создаёт хранилище сессий.
// maxSize — максимальное количество одновременных сессий.
// ttl — время жизни сессии без активности.
func NewStore(maxSize int, ttl time.Duration, factory Factory, logger *slog.Logger) *Store {
	s := &Store{
		factory: factory,
		ttl:     ttl,
		logger:  logger.With(slog.String("component", "ui.session")),
	}
	s.cache = expirable.NewLRU[string, *controller.Controller](maxSize, s.onEvict, ttl)
	s.renewed = expirable.NewLRU[string, string](maxSize, nil, renewWindow)
	return s
}

// SetSecureCookie включает флаг Secure у cookie сессии (Web Client за HTTPS).
func (s *Store) SetSecureCookie(secure bool) {
	s.secure = secure
}

// onEvict освобождает ресурсы Controller удалённой сессии.
func (s *Store) onEvict(id string, ctl *controller.Controller) {
	sessionsEvictedTotal.Inc()
	ctl.Close()
	s.logger.Debug("Сессия удалена", slog.String("session_id", id))
}

// Get возвращает Controller сессии и продлевает её TTL.
func (s *Store) Get(id string) (*controller.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctl, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	// Повторный Add обновляет срок жизни записи
	s.cache.Add(id, ctl)
	return ctl, true
}

// Len возвращает количество активных сессий.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Resolve возвращает Controller сессии запроса. Если cookie нет или сессия
// истекла, создаётся новая сессия и устанавливается cookie.
// Запросы без cookie всегда получают отдельные сессии: страница получает
// cookie при GET / раньше, чем отправляет формы.
func (s *Store) Resolve(w http.ResponseWriter, r *http.Request) (*controller.Controller, error) {
	var stale string
	if cookie, err := r.Cookie(CookieName); err == nil {
		if _, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
			stale = cookie.Value
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if stale != "" {
		if ctl, ok := s.cache.Get(stale); ok {
			// Повторный Add обновляет срок жизни записи
			s.cache.Add(stale, ctl)
			return ctl, nil
		}
		if id, ok := s.renewed.Get(stale); ok {
			if ctl, ok := s.cache.Get(id); ok {
				s.cache.Add(id, ctl)
				s.setCookie(w, id)
				return ctl, nil
			}
		}
	}

	ctl, err := s.factory()
	if err != nil {
		return nil, fmt.Errorf("создание сессии: %w", err)
	}

	id := uuid.NewString()
	s.cache.Add(id, ctl)
	if stale != "" {
		s.renewed.Add(stale, id)
	}
	sessionsCreatedTotal.Inc()
	s.setCookie(w, id)

	s.logger.Debug("Создана новая сессия", slog.String("session_id", id))
	return ctl, nil
}

func (s *Store) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware помещает Controller сессии в контекст запроса.
func (s *Store) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctl, err := s.Resolve(w, r)
			if err != nil {
				s.logger.Error("Ошибка получения сессии", slog.String("error", err.Error()))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithController(r.Context(), ctl)))
		})
	}
}

// WithController помещает Controller в контекст.
func WithController(ctx context.Context, ctl *controller.Controller) context.Context {
	return context.WithValue(ctx, contextKeyController, ctl)
}

// ControllerFromContext извлекает Controller из контекста (nil, если нет).
func ControllerFromContext(ctx context.Context) *controller.Controller {
	ctl, _ := ctx.Value(contextKeyController).(*controller.Controller)
	return ctl
}
