package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/medcareai/medcare-client/internal/client/api"
	"github.com/medcareai/medcare-client/internal/client/config"
	"github.com/medcareai/medcare-client/internal/client/repositories/credentials"
	"github.com/medcareai/medcare-client/internal/client/router"
	"github.com/medcareai/medcare-client/internal/client/session"
	"github.com/medcareai/medcare-client/internal/client/watch"
	"github.com/medcareai/medcare-client/internal/filex"
	"github.com/medcareai/medcare-client/internal/logging"

	_ "modernc.org/sqlite"
)

// watchDebounce coalesces bursts of credential-file events produced by a
// single sqlite transaction into one session recheck.
const watchDebounce = 500 * time.Millisecond

type App struct {
	config  *config.Config
	session *session.Service
	client  api.Client
	router  *router.Router
	watcher *watch.Watcher
	db      *sql.DB
	log     logging.Logger
	reader  *bufio.Reader

	// closed once the initial session bootstrap has resolved
	booted <-chan struct{}
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {

	dir, err := filex.EnsureDir(filepath.Dir(c.StoragePath))
	if err != nil {
		log.Error(ctx, "error preparing storage directory", "error", err)
		return nil, err
	}
	dbPath := filepath.Join(dir, filepath.Base(c.StoragePath))

	db, err := credentials.OpenDatabase(ctx, dbPath)
	if err != nil {
		log.Error(ctx, "error initializing credential database", "error", err)
		return nil, err
	}

	store := credentials.NewSQLiteStore(db)
	apiClient := api.NewHTTPClient(c.ServerURL, c.RequestTimeout, store, log)

	svc := session.NewService(store, apiClient, log)
	rt := router.New()

	// The gateway drives the expired-session flow: it clears the store,
	// notifies the session service, and redirects the router to the login
	// view. Wiring happens here so each part stays independently testable.
	apiClient.SetNavigator(rt)
	apiClient.SetInvalidationHook(svc.HandleUnauthorized)
	svc.OnInvalidated(func() {
		fmt.Println("\nYour session has expired. Please login again.")
	})

	watcher := watch.NewWatcher(dbPath, watchDebounce, log, svc.Recheck)

	return &App{
		config:  c,
		session: svc,
		client:  apiClient,
		router:  rt,
		watcher: watcher,
		db:      db,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run bootstraps the session from the local credential cache, starts the
// external-change watcher, and blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer func() { _ = a.db.Close() }()

	a.booted = a.session.Bootstrap(ctx)

	if err := a.watcher.Start(); err != nil {
		a.log.Warn(ctx, "credential watcher disabled", "error", err)
	} else {
		defer func() { _ = a.watcher.Stop() }()
	}

	fmt.Println("Welcome to MedCare CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

func (a *App) isLoggedIn() bool {
	return a.session.Current().Authenticated()
}

// getStatus renders the prompt fragment: the signed-in email (if any) and
// the current location, e.g. "(alice@example.org /news)".
func (a *App) getStatus() string {
	s := ""
	if u := a.session.Current().User; u != nil {
		s = u.Email + " "
	}
	s = s + a.router.Location()
	return fmt.Sprintf("(%s)", s)
}

// waitBooted blocks until the initial bootstrap has resolved, so commands
// that depend on the final session state never observe the loading phase.
func (a *App) waitBooted(ctx context.Context) error {
	if a.booted == nil {
		return nil
	}
	select {
	case <-a.booted:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
