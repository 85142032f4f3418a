package session

import (
	"context"
	"errors"
	"sync"

	"github.com/medcareai/medcare-client/internal/client/api"
	"github.com/medcareai/medcare-client/internal/client/models"
	"github.com/medcareai/medcare-client/internal/client/repositories/credentials"
	"github.com/medcareai/medcare-client/internal/client/token"
	"github.com/medcareai/medcare-client/internal/common"
	"github.com/medcareai/medcare-client/internal/logging"
)

// Service is the reactive authority over authentication state. It is an
// explicit, constructible object: consumers hold a reference instead of
// reaching into ambient global state, which keeps instances isolated in
// tests.
//
// The credential store is the only persistence it touches, and the only
// mutators of that store are Login, Logout, UpdateUser, and the gateway's
// invalidation path.
type Service struct {
	store  credentials.Store
	client api.Client
	log    logging.Logger

	mu     sync.Mutex
	state  State
	user   *models.User
	errMsg string
	subs   []func()

	// gen counts authoritative identity changes (login, logout, server
	// invalidation, cross-process recheck). An in-flight refresh captures it
	// at start and applies its result only if it is unchanged, in the same
	// critical section as the write.
	gen uint64
}

func NewService(store credentials.Store, client api.Client, log logging.Logger) *Service {
	return &Service{
		store:  store,
		client: client,
		log:    log.With("component", "session"),
	}
}

// Current returns a snapshot of the session.
func (s *Service) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Session{
		User:    s.user,
		Loading: s.state != StateResolved,
		Err:     s.errMsg,
	}
}

// OnInvalidated subscribes cb to server-asserted session invalidation. The
// callback runs synchronously on the invalidation path, in subscription
// order.
func (s *Service) OnInvalidated(cb func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, cb)
}

// Bootstrap establishes the initial session. It runs once per process.
//
// The cache step is synchronous: a persisted pair with a non-expired token
// makes the session authenticated before any network call is issued, so the
// UI never flashes anonymous for a user with valid cached credentials. The
// profile refresh then runs in the background; the returned channel closes
// when it has resolved and Loading has flipped false.
func (s *Service) Bootstrap(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		close(done)
		return done
	}
	s.state = StateLoading
	s.mu.Unlock()

	pair, err := s.store.Load(ctx)
	if err != nil {
		s.log.Error(ctx, "credential store unreadable, starting anonymous", "error", err)
		s.resolve(nil)
		close(done)
		return done
	}

	if pair == nil || !token.IsValid(pair.Token) {
		if pair != nil {
			s.log.Info(ctx, "stored credential expired, clearing")
			if err := s.store.Clear(ctx); err != nil {
				s.log.Error(ctx, "failed to clear expired credential", "error", err)
			}
		}
		s.resolve(nil)
		close(done)
		return done
	}

	hadCached := pair.User != nil
	s.mu.Lock()
	if hadCached {
		s.user = pair.User
	}
	gen := s.gen
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.refresh(ctx, pair.Token, gen, hadCached)
	}()

	return done
}

// refresh is the background half of Bootstrap. bootToken is the credential
// that triggered the refresh; if the persisted token no longer matches when
// the response arrives, or the identity generation moved while the request
// was in flight, the result is stale and must be discarded, otherwise a late
// response could resurrect a session cleared in the meantime.
func (s *Service) refresh(ctx context.Context, bootToken string, gen uint64, hadCached bool) {
	fresh, err := s.client.CurrentUser(ctx)

	cur, terr := s.store.Token(ctx)
	if terr != nil || cur != bootToken {
		s.log.Info(ctx, "discarding stale profile refresh")
		s.finishLoading()
		return
	}

	switch {
	case err == nil && fresh != nil:
		if perr := s.store.SaveUser(ctx, fresh); perr != nil {
			if errors.Is(perr, common.ErrorUnauthorized) {
				// The credential was cleared between the token check and
				// this write (a logout raced the refresh); the result is
				// stale.
				s.log.Info(ctx, "discarding stale profile refresh")
				s.finishLoading()
				return
			}
			s.log.Warn(ctx, "could not re-persist refreshed profile", "error", perr)
		}
		s.setUserIfCurrent(fresh, gen)

	case hadCached:
		// Transient failure with a cached identity already rendered: keep
		// it. The user is not punished for network flakiness.
		s.log.Warn(ctx, "profile refresh failed, keeping cached profile", "error", err)

	default:
		s.log.Warn(ctx, "no cached profile and refresh failed, clearing auth", "error", err)
		if s.generation() == gen {
			if cerr := s.store.Clear(ctx); cerr != nil {
				s.log.Error(ctx, "failed to clear credentials", "error", cerr)
			}
			s.setUserIfCurrent(nil, gen)
		}
	}

	s.finishLoading()
}

// Login persists the (token, user) pair and marks the session
// authenticated. It never reports success without a successful persist: on a
// storage failure the session stays unauthenticated and the error is
// recorded for the UI.
func (s *Service) Login(ctx context.Context, user *models.User, tok string) error {
	if err := s.store.Save(ctx, &credentials.StoredPair{Token: tok, User: user}); err != nil {
		s.log.Error(ctx, "login persistence failed", "error", err)
		s.mu.Lock()
		s.errMsg = "Failed to save authentication data"
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.user = user
	s.errMsg = ""
	s.state = StateResolved
	s.gen++
	s.mu.Unlock()
	return nil
}

// Logout calls the logout endpoint best-effort and unconditionally clears
// local state. A failing server call is logged, never surfaced.
func (s *Service) Logout(ctx context.Context) {
	if err := s.client.Logout(ctx); err != nil {
		s.log.Warn(ctx, "logout call failed, clearing local state anyway", "error", err)
	}

	if err := s.store.Clear(ctx); err != nil {
		s.log.Error(ctx, "failed to clear credentials on logout", "error", err)
	}

	s.mu.Lock()
	s.user = nil
	s.errMsg = ""
	s.state = StateResolved
	s.gen++
	s.mu.Unlock()
}

// UpdateUser re-persists the profile half of the stored pair, leaving the
// token untouched.
func (s *Service) UpdateUser(ctx context.Context, user *models.User) error {
	if err := s.store.SaveUser(ctx, user); err != nil {
		s.log.Error(ctx, "profile update persistence failed", "error", err)
		s.mu.Lock()
		s.errMsg = "Failed to update user data"
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return nil
}

// RefreshUser fetches the latest profile for an authenticated session. On
// any failure it returns the previously held user unchanged and records no
// error; staying logged in on a transient failure is deliberate.
func (s *Service) RefreshUser(ctx context.Context) *models.User {
	s.mu.Lock()
	cur := s.user
	s.mu.Unlock()

	if cur == nil {
		return nil
	}

	fresh, err := s.client.CurrentUser(ctx)
	if err != nil || fresh == nil {
		s.log.Warn(ctx, "profile refresh failed, keeping current profile", "error", err)
		return cur
	}

	if err := s.UpdateUser(ctx, fresh); err != nil {
		return cur
	}
	return fresh
}

// Recheck re-derives the session from the store alone, without a network
// call. The cross-tab synchronizer calls it when another process mutates
// the shared store, so a logout or login elsewhere propagates immediately.
func (s *Service) Recheck(ctx context.Context) {
	pair, err := s.store.Load(ctx)
	if err != nil {
		s.log.Error(ctx, "recheck failed to read store", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if pair == nil || !token.IsValid(pair.Token) {
		s.user = nil
		s.gen++
		return
	}
	if pair.User != nil {
		s.user = pair.User
		s.gen++
	}
}

// HandleUnauthorized is the single authorized invalidation path, wired as
// the gateway's invalidation hook. The gateway has already cleared the
// store; this drops the in-memory identity and notifies subscribers
// synchronously.
func (s *Service) HandleUnauthorized(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.errMsg = "Session expired. Please login again."
	s.state = StateResolved
	s.gen++
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, cb := range subs {
		cb()
	}
}

// ClearError drops the recorded user-visible error.
func (s *Service) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *Service) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// setUserIfCurrent applies user only when no authoritative identity change
// happened since gen was captured.
func (s *Service) setUserIfCurrent(user *models.User, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.user = user
	}
}

func (s *Service) resolve(user *models.User) {
	s.mu.Lock()
	s.user = user
	s.state = StateResolved
	s.mu.Unlock()
}

func (s *Service) finishLoading() {
	s.mu.Lock()
	if s.state != StateResolved {
		s.state = StateResolved
	}
	s.mu.Unlock()
}
