package repository

import (
	"context"
	"fmt"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/secure"
)

// SealedSessions encrypts the session token before it reaches the store.
type SealedSessions struct {
	next   SessionRepository
	sealer *secure.Sealer
}

// NewSealedSessions wraps next with token sealing.
func NewSealedSessions(next SessionRepository, sealer *secure.Sealer) *SealedSessions {
	return &SealedSessions{next: next, sealer: sealer}
}

// GetSession loads and unseals the stored session. A token that no longer
// opens (secret rotated) is reported as an error so the caller can drop it.
func (s *SealedSessions) GetSession(ctx context.Context) (*domain.Session, error) {
	session, err := s.next.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if session.Token == "" {
		return session, nil
	}
	token, err := s.sealer.Open(session.Token)
	if err != nil {
		return nil, fmt.Errorf("unseal session token: %w", err)
	}
	session.Token = string(token)
	return session, nil
}

// SaveSession seals a copy of the session; the caller's value is untouched.
func (s *SealedSessions) SaveSession(ctx context.Context, session *domain.Session) error {
	sealed := *session
	if sealed.Token != "" {
		token, err := s.sealer.Seal([]byte(session.Token))
		if err != nil {
			return fmt.Errorf("seal session token: %w", err)
		}
		sealed.Token = token
	}
	return s.next.SaveSession(ctx, &sealed)
}

func (s *SealedSessions) DeleteSession(ctx context.Context) error {
	return s.next.DeleteSession(ctx)
}
