package session

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/medcareai/medcare-client/internal/client/models"
	"github.com/medcareai/medcare-client/internal/client/repositories/credentials"
	"github.com/medcareai/medcare-client/internal/logging"
)

// ---- helpers ----

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupStore(t *testing.T) credentials.Store {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE credentials (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
`)
	require.NoError(t, err)
	return credentials.NewSQLiteStore(db)
}

func makeToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(ttl).Unix(),
	})
	s, err := tok.SignedString([]byte("unit-test-secret"))
	require.NoError(t, err)
	return s
}

func cachedUser() *models.User {
	return &models.User{ID: 1, Email: "a@b.com", FullName: "Cached"}
}

// ---- fake API client ----

type fakeAPI struct {
	mu sync.Mutex

	currentUserRet   *models.User
	currentUserErr   error
	currentUserCalls int
	currentUserGate  chan struct{} // blocks CurrentUser until closed, when set

	logoutErr   error
	logoutCalls int
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*models.User, error) {
	f.mu.Lock()
	f.currentUserCalls++
	gate := f.currentUserGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentUserRet, f.currentUserErr
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentUserCalls
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAPI) Signup(ctx context.Context, fullName, email, password string) (*models.AuthResult, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAPI) GoogleAuth(ctx context.Context, credential string) (*models.AuthResult, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAPI) News(ctx context.Context, q models.NewsQuery) (*models.NewsPage, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAPI) About(ctx context.Context) (*models.Message, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAPI) Contact(ctx context.Context) (*models.Message, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAPI) AskDoctor(ctx context.Context) (*models.Message, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAPI) Report(ctx context.Context) (*models.Message, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAPI) Rays(ctx context.Context) (*models.Message, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAPI) Analysis(ctx context.Context) (*models.Message, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAPI) UploadMRI(ctx context.Context, fileName string, file io.Reader) (*models.Message, error) {
	return nil, errors.New("not implemented")
}

// failStore wraps a Store and fails all writes.
type failStore struct {
	credentials.Store
}

func (f *failStore) Save(ctx context.Context, pair *credentials.StoredPair) error {
	return errors.New("disk full")
}

func (f *failStore) SaveUser(ctx context.Context, user *models.User) error {
	return errors.New("disk full")
}

// slowPersistStore wraps a Store and blocks the first SaveUser until release
// is closed, letting a test interleave another operation between the
// refresh's token check and its persist step.
type slowPersistStore struct {
	credentials.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowPersistStore) SaveUser(ctx context.Context, user *models.User) error {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.Store.SaveUser(ctx, user)
}

// ---- tests ----

func TestBootstrap_EmptyStoreResolvesAnonymous(t *testing.T) {
	store := setupStore(t)
	apiClient := &fakeAPI{}
	svc := NewService(store, apiClient, testLogger())

	<-svc.Bootstrap(context.Background())

	s := svc.Current()
	require.Nil(t, s.User)
	require.False(t, s.Loading)
	require.Zero(t, apiClient.calls(), "no network call without a credential")
}

func TestBootstrap_ExpiredTokenClearsStore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &credentials.StoredPair{Token: makeToken(t, -time.Hour)}))

	apiClient := &fakeAPI{}
	svc := NewService(store, apiClient, testLogger())

	<-svc.Bootstrap(ctx)

	s := svc.Current()
	require.Nil(t, s.User)
	require.False(t, s.Loading)

	pair, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, pair, "expired credential must be cleared")
	require.Zero(t, apiClient.calls())
}

func TestBootstrap_CacheFirstBeforeRefreshResolves(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &credentials.StoredPair{Token: makeToken(t, time.Hour), User: cachedUser()}))

	gate := make(chan struct{})
	apiClient := &fakeAPI{
		currentUserRet:  &models.User{ID: 1, Email: "a@b.com", FullName: "Fresh"},
		currentUserGate: gate,
	}
	svc := NewService(store, apiClient, testLogger())

	done := svc.Bootstrap(ctx)

	// the refresh has not resolved, yet the cached identity is visible
	s := svc.Current()
	require.NotNil(t, s.User)
	require.Equal(t, "Cached", s.User.FullName)
	require.True(t, s.Loading)

	close(gate)
	<-done

	s = svc.Current()
	require.Equal(t, "Fresh", s.User.FullName)
	require.False(t, s.Loading)

	// the refreshed profile is re-persisted
	pair, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "Fresh", pair.User.FullName)
}

func TestBootstrap_RefreshFailureKeepsCachedUser(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &credentials.StoredPair{Token: makeToken(t, time.Hour), User: cachedUser()}))

	apiClient := &fakeAPI{currentUserErr: errors.New("network down")}
	svc := NewService(store, apiClient, testLogger())

	<-svc.Bootstrap(ctx)

	s := svc.Current()
	require.NotNil(t, s.User, "cached identity survives a transient failure")
	require.Equal(t, "Cached", s.User.FullName)
	require.False(t, s.Loading)
	require.Empty(t, s.Err, "transient refresh failures are not user-visible")

	pair, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, pair, "credentials are kept")
}

func TestBootstrap_RefreshFailureWithoutCacheClearsAuth(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &credentials.StoredPair{Token: makeToken(t, time.Hour)}))

	apiClient := &fakeAPI{currentUserErr: errors.New("network down")}
	svc := NewService(store, apiClient, testLogger())

	<-svc.Bootstrap(ctx)

	s := svc.Current()
	require.Nil(t, s.User)
	require.False(t, s.Loading)

	pair, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, pair)
}

func TestBootstrap_RunsOnce(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &credentials.StoredPair{Token: makeToken(t, time.Hour), User: cachedUser()}))

	apiClient := &fakeAPI{currentUserRet: cachedUser()}
	svc := NewService(store, apiClient, testLogger())

	<-svc.Bootstrap(ctx)
	<-svc.Bootstrap(ctx)

	require.Equal(t, 1, apiClient.calls(), "at most one refresh per process bootstrap")
}

func TestLogout_NoResurrectionFromLateRefresh(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &credentials.StoredPair{Token: makeToken(t, time.Hour), User: cachedUser()}))

	gate := make(chan struct{})
	apiClient := &fakeAPI{
		currentUserRet:  &models.User{ID: 1, Email: "a@b.com", FullName: "Late"},
		currentUserGate: gate,
	}
	svc := NewService(store, apiClient, testLogger())

	done := svc.Bootstrap(ctx)

	// logout completes while the refresh is still in flight
	svc.Logout(ctx)
	require.Nil(t, svc.Current().User)

	close(gate)
	<-done

	s := svc.Current()
	require.Nil(t, s.User, "a late refresh must not repopulate the session")

	pair, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, pair)
}

func TestLogout_RacingRefreshPersistIsDiscarded(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &credentials.StoredPair{Token: makeToken(t, time.Hour), User: cachedUser()}))

	slow := &slowPersistStore{Store: store, entered: make(chan struct{}), release: make(chan struct{})}
	apiClient := &fakeAPI{currentUserRet: &models.User{ID: 1, Email: "a@b.com", FullName: "Fresh"}}
	svc := NewService(slow, apiClient, testLogger())

	done := svc.Bootstrap(ctx)

	// logout lands after the refresh passed its token check but before it
	// persisted and applied the result
	<-slow.entered
	svc.Logout(ctx)
	close(slow.release)
	<-done

	s := svc.Current()
	require.Nil(t, s.User, "a racing refresh must not resurrect a logged-out session")
	require.False(t, s.Loading)

	pair, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, pair, "the store stays cleared")
}

func TestLogin_PersistsAndAuthenticates(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	svc := NewService(store, &fakeAPI{}, testLogger())
	<-svc.Bootstrap(ctx)

	u := cachedUser()
	require.NoError(t, svc.Login(ctx, u, makeToken(t, time.Hour)))

	s := svc.Current()
	require.True(t, s.Authenticated())
	require.Empty(t, s.Err)

	pair, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", pair.User.Email)
}

func TestLogin_PersistenceFailureLeavesAnonymous(t *testing.T) {
	store := &failStore{Store: setupStore(t)}
	ctx := context.Background()
	svc := NewService(store, &fakeAPI{}, testLogger())
	<-svc.Bootstrap(ctx)

	err := svc.Login(ctx, cachedUser(), makeToken(t, time.Hour))
	require.Error(t, err)

	s := svc.Current()
	require.False(t, s.Authenticated(), "login must not report success without persistence")
	require.NotEmpty(t, s.Err)
}

func TestLogout_BestEffortServerCall(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	apiClient := &fakeAPI{logoutErr: errors.New("500")}
	svc := NewService(store, apiClient, testLogger())
	<-svc.Bootstrap(ctx)

	require.NoError(t, svc.Login(ctx, cachedUser(), makeToken(t, time.Hour)))
	svc.Logout(ctx)

	require.Equal(t, 1, apiClient.logoutCalls)
	require.Nil(t, svc.Current().User, "local state cleared despite server failure")

	pair, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, pair)
}

func TestRefreshUser_FailureReturnsPreviousUser(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	apiClient := &fakeAPI{currentUserErr: errors.New("timeout")}
	svc := NewService(store, apiClient, testLogger())
	<-svc.Bootstrap(ctx)

	u := cachedUser()
	require.NoError(t, svc.Login(ctx, u, makeToken(t, time.Hour)))

	got := svc.RefreshUser(ctx)
	require.Equal(t, u, got, "previous user returned unchanged")

	s := svc.Current()
	require.Equal(t, u, s.User)
	require.Empty(t, s.Err, "no error recorded for a failed refresh")
}

func TestRefreshUser_SuccessUpdatesAndPersists(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	fresh := &models.User{ID: 1, Email: "a@b.com", FullName: "Fresh"}
	apiClient := &fakeAPI{currentUserRet: fresh}
	svc := NewService(store, apiClient, testLogger())
	<-svc.Bootstrap(ctx)

	require.NoError(t, svc.Login(ctx, cachedUser(), makeToken(t, time.Hour)))

	got := svc.RefreshUser(ctx)
	require.Equal(t, "Fresh", got.FullName)

	pair, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "Fresh", pair.User.FullName)
}

func TestRefreshUser_AnonymousIsNoop(t *testing.T) {
	store := setupStore(t)
	apiClient := &fakeAPI{}
	svc := NewService(store, apiClient, testLogger())
	<-svc.Bootstrap(context.Background())

	require.Nil(t, svc.RefreshUser(context.Background()))
	require.Zero(t, apiClient.calls())
}

func TestRecheck_ConvergesWithoutNetwork(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	apiClient := &fakeAPI{}
	svc := NewService(store, apiClient, testLogger())
	<-svc.Bootstrap(ctx)

	require.NoError(t, svc.Login(ctx, cachedUser(), makeToken(t, time.Hour)))
	before := apiClient.calls()

	// another process clears the shared store
	require.NoError(t, store.Clear(ctx))
	svc.Recheck(ctx)

	require.Nil(t, svc.Current().User, "logout elsewhere propagates")
	require.Equal(t, before, apiClient.calls(), "recheck issues no network request")
}

func TestRecheck_PicksUpLoginFromAnotherProcess(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	svc := NewService(store, &fakeAPI{}, testLogger())
	<-svc.Bootstrap(ctx)
	require.Nil(t, svc.Current().User)

	// another process signs in
	require.NoError(t, store.Save(ctx, &credentials.StoredPair{Token: makeToken(t, time.Hour), User: cachedUser()}))
	svc.Recheck(ctx)

	require.NotNil(t, svc.Current().User)
}

func TestHandleUnauthorized_NotifiesSubscribersSynchronously(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	svc := NewService(store, &fakeAPI{}, testLogger())
	<-svc.Bootstrap(ctx)
	require.NoError(t, svc.Login(ctx, cachedUser(), makeToken(t, time.Hour)))

	var order []string
	svc.OnInvalidated(func() { order = append(order, "first") })
	svc.OnInvalidated(func() { order = append(order, "second") })

	svc.HandleUnauthorized(ctx)

	require.Equal(t, []string{"first", "second"}, order)

	s := svc.Current()
	require.Nil(t, s.User)
	require.NotEmpty(t, s.Err)
}

func TestClearError(t *testing.T) {
	store := setupStore(t)
	svc := NewService(store, &fakeAPI{}, testLogger())

	svc.HandleUnauthorized(context.Background())
	require.NotEmpty(t, svc.Current().Err)

	svc.ClearError()
	require.Empty(t, svc.Current().Err)
}
