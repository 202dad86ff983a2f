package sessions

import (
	"fmt"
	"sync"

	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*Store)(nil)

// Store owns the operator session. All reads and writes go through it; writes are
// visible to the next read immediately.
type Store struct {
	repo    Repo
	lock    sync.RWMutex
	current *SessionData
	onClear []func()
}

// New creates a Store backed by repo. Call Init to pick up a previously saved session.
func New(repo Repo) *Store {
	return &Store{repo: repo}
}

// Init loads the persisted session. Partial or unreadable state is discarded.
func (s *Store) Init() error {
	values, err := s.repo.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Discarding unreadable session")
		return s.repo.Clear()
	}

	data, ok := fromValues(values)
	if !ok {
		if len(values) > 0 {
			log.Warn().Msg("Discarding partial session")
			return s.repo.Clear()
		}
		return nil
	}

	s.lock.Lock()
	s.current = &data
	s.lock.Unlock()
	return nil
}

// Save persists tokens and role together. The in-memory session only changes once
// the repo write succeeded, so readers never see a half written session.
func (s *Store) Save(tokens Tokens, role string) error {
	data := SessionData{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, Role: role}
	if _, ok := fromValues(data.values()); !ok {
		return fmt.Errorf("[Store Save] access token, refresh token and role are required: %w", apperrors.ErrValidation)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.repo.Save(data.values()); err != nil {
		return fmt.Errorf("[Store Save] persist session: %w", err)
	}
	s.current = &data
	return nil
}

// Clear removes the session. Readers observe the absence even if the repo fails.
func (s *Store) Clear() error {
	s.lock.Lock()
	hadSession := s.current != nil
	s.current = nil
	hooks := append([]func(){}, s.onClear...)
	err := s.repo.Clear()
	s.lock.Unlock()

	if hadSession {
		for _, hook := range hooks {
			hook()
		}
	}
	if err != nil {
		return fmt.Errorf("[Store Clear] remove session: %w", err)
	}
	return nil
}

// OnClear registers fn to run after a present session is cleared.
func (s *Store) OnClear(fn func()) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.onClear = append(s.onClear, fn)
}

func (s *Store) snapshot() (SessionData, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.current == nil {
		return SessionData{}, false
	}
	return *s.current, true
}

func (s *Store) AccessToken() (string, bool) {
	data, ok := s.snapshot()
	return data.AccessToken, ok
}

func (s *Store) RefreshToken() (string, bool) {
	data, ok := s.snapshot()
	return data.RefreshToken, ok
}

func (s *Store) Role() (string, bool) {
	data, ok := s.snapshot()
	return data.Role, ok
}

func (s *Store) IsAuthenticated() bool {
	_, ok := s.snapshot()
	return ok
}

// Token implements oauth2.TokenSource.
func (s *Store) Token() (*oauth2.Token, error) {
	data, ok := s.snapshot()
	if !ok {
		return nil, apperrors.ErrSessionAbsent
	}
	return &oauth2.Token{
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}

// Claims decodes the access token for display.
func (s *Store) Claims() (Claims, bool) {
	data, ok := s.snapshot()
	if !ok {
		return Claims{}, false
	}
	return parseClaims(data.AccessToken)
}
