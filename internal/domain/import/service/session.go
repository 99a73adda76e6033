package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/parser"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/settings"
)

// Session serializes the transitions of one import. Loading a file cancels
// the work still running for the previous one.
type Session struct {
	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

func NewSession() *Session {
	return &Session{}
}

// Load installs a new file and returns a context scoped to it together with
// its generation. The context is cancelled when the next file is loaded or
// the session is closed.
func (s *Session) Load(ctx context.Context, data []byte, file *parser.File, prefs settings.ImportSettings, accountID *uuid.UUID) (context.Context, uint64) {
	fileCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	// FileLoaded never fails
	s.state, _ = Apply(s.state, FileLoaded{Data: data, File: file, Settings: prefs, AccountID: accountID})
	return fileCtx, s.state.Generation
}

// Dispatch applies ev to the session state.
func (s *Session) Dispatch(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Apply(s.state, ev)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
