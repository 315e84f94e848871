package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/event"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/notify"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/repository"
	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/validator"
)

// Cart clear reasons reported in cart.cleared events.
const (
	ClearReasonSessionExpired = "session_expired"
	ClearReasonOrderPlaced    = "order_placed"
	ClearReasonLogout         = "logout"
)

const sessionExpiredMessage = "your session has expired, please log in again"

// SessionSource exposes the signed-in user to services that need one.
type SessionSource interface {
	Current() *domain.Session
}

// SessionListener is told when the user signs in or out. session is nil
// after a logout or an expiry.
type SessionListener func(ctx context.Context, session *domain.Session)

// SessionService owns the signed-in user and tears everything down when the
// backend rejects the token.
type SessionService struct {
	auth   AuthBackend
	repo   repository.SessionRepository
	cart   *CartService
	inbox  *notify.Inbox
	events *event.Producer
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	session   *domain.Session
	listeners []SessionListener
}

// NewSessionService creates a new session service.
func NewSessionService(
	auth AuthBackend,
	repo repository.SessionRepository,
	cart *CartService,
	inbox *notify.Inbox,
	events *event.Producer,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		auth:   auth,
		repo:   repo,
		cart:   cart,
		inbox:  inbox,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// OnChange registers fn to run after the user signs in or out.
func (s *SessionService) OnChange(fn SessionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Current returns a copy of the signed-in user, or nil.
func (s *SessionService) Current() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

// Token returns the bearer token, or "" when signed out. It feeds the
// transport's bearer decorator.
func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

// UserID returns the signed-in user id, or "".
func (s *SessionService) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.UserID
}

// Restore loads the persisted session at launch. A token whose exp claim
// is already in the past, or one that can no longer be unsealed, is
// dropped.
func (s *SessionService) Restore(ctx context.Context) error {
	sess, err := s.repo.GetSession(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		s.logger.WarnContext(ctx, "dropping unreadable session", slog.String("error", err.Error()))
		if delErr := s.repo.DeleteSession(ctx); delErr != nil {
			return fmt.Errorf("delete unreadable session: %w", delErr)
		}
		return nil
	}

	if !sess.Authenticated() || s.tokenExpired(sess.Token) {
		s.logger.InfoContext(ctx, "stored session expired", slog.String("user_id", sess.UserID))
		if err := s.repo.DeleteSession(ctx); err != nil {
			return fmt.Errorf("delete expired session: %w", err)
		}
		return nil
	}

	s.set(ctx, sess)
	s.logger.InfoContext(ctx, "session restored", slog.String("user_id", sess.UserID))
	return nil
}

// tokenExpired inspects the exp claim without verifying the signature. The
// backend stays the authority; this only avoids a doomed first request.
// Tokens that are not JWTs never expire locally.
func (s *SessionService) tokenExpired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(s.now())
}

// Login signs in with an email or phone number and a password.
func (s *SessionService) Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	if err := validator.Validate(creds); err != nil {
		return nil, err
	}
	sess, err := s.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	s.establish(ctx, sess)
	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", sess.UserID))
	return s.Current(), nil
}

// Register creates an account and signs in with it.
func (s *SessionService) Register(ctx context.Context, reg domain.Registration) (*domain.Session, error) {
	if err := validator.Validate(reg); err != nil {
		return nil, err
	}
	sess, err := s.auth.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	s.establish(ctx, sess)
	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", sess.UserID))
	return s.Current(), nil
}

// establish keeps the session in memory even when it cannot be persisted;
// the user then has to log in again on the next launch.
func (s *SessionService) establish(ctx context.Context, sess *domain.Session) {
	if err := s.repo.SaveSession(ctx, sess); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist session",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
	}
	s.set(ctx, sess)
}

// Logout signs out. The cart is kept.
func (s *SessionService) Logout(ctx context.Context) error {
	prev := s.take()
	if prev == nil {
		return nil
	}
	if err := s.repo.DeleteSession(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.notify(ctx, nil)
	s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", prev.UserID))
	return nil
}

// Expire tears down a session the backend rejected: the token is deleted,
// the cart is cleared, the user is told to log in again and the expiry is
// published. Concurrent 401 responses collapse into one teardown.
func (s *SessionService) Expire(ctx context.Context) {
	prev := s.take()
	if prev == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	l := s.logger.With(slog.String("user_id", prev.UserID))
	l.WarnContext(ctx, "session rejected by backend, signing out")

	if err := s.repo.DeleteSession(ctx); err != nil {
		l.ErrorContext(ctx, "failed to delete expired session", slog.String("error", err.Error()))
	}
	if err := s.cart.Clear(ctx); err != nil {
		l.ErrorContext(ctx, "failed to clear cart on expiry", slog.String("error", err.Error()))
	}
	s.inbox.Push(notify.KindSessionExpired, sessionExpiredMessage, "login")
	s.notify(ctx, nil)

	if err := s.events.PublishSessionExpired(ctx, prev.UserID); err != nil {
		l.WarnContext(ctx, "failed to publish session expired event", slog.String("error", err.Error()))
	}
	if err := s.events.PublishCartCleared(ctx, prev.UserID, ClearReasonSessionExpired); err != nil {
		l.WarnContext(ctx, "failed to publish cart cleared event", slog.String("error", err.Error()))
	}
}

func (s *SessionService) set(ctx context.Context, sess *domain.Session) {
	cp := *sess
	s.mu.Lock()
	s.session = &cp
	s.mu.Unlock()
	s.notify(ctx, &cp)
}

// take clears the in-memory session and returns what it held.
func (s *SessionService) take() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.session
	s.session = nil
	return prev
}

func (s *SessionService) notify(ctx context.Context, sess *domain.Session) {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		if sess == nil {
			fn(ctx, nil)
			continue
		}
		cp := *sess
		fn(ctx, &cp)
	}
}
