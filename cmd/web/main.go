package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/form/v4"
	_ "github.com/go-sql-driver/mysql"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/mabego/firebase-login/internal/identity"
	"github.com/mabego/firebase-login/internal/migrations"
	"github.com/mabego/firebase-login/internal/models"
)

const (
	IdleTimeout       = time.Minute
	ReadTimeout       = 5 * time.Second
	SessionLifetime   = 12 * time.Hour
	ShutdownTimeout   = 10 * time.Second
	WriteTimeout      = 10 * time.Second
	AuthEventCapacity = 500
	UsersCollection   = "users"
)

type application struct {
	debug          bool
	errorLog       *log.Logger
	infoLog        *log.Logger
	provider       identity.Provider
	verifier       identity.Verifier
	users          models.UserModelInterface
	authEvents     models.AuthEventModelInterface
	templateCache  map[string]*template.Template
	formDecoder    *form.Decoder
	sessionManager *scs.SessionManager
}

type config struct {
	addr              string
	dsn               string
	debug             bool
	firebaseAPIKey    string
	firebaseProject   string
	firestoreDatabase string
	identityEndpoint  string
	logLevel          string
	logJSON           bool
}

func main() {
	var cfg config

	flag.StringVar(&cfg.addr, "addr", ":4001", "HTTP network address")
	flag.StringVar(&cfg.dsn, "dsn", "", "MySQL data source name, e.g. web:pass@/login?parseTime=true "+
		"(sessions and diagnostics stay in memory when empty)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug mode in the browser")
	flag.StringVar(&cfg.firebaseAPIKey, "firebase-api-key", os.Getenv("FIREBASE_API_KEY"),
		"Firebase web API key (a local development provider is used when empty)")
	flag.StringVar(&cfg.firebaseProject, "firebase-project", os.Getenv("FIREBASE_PROJECT_ID"),
		"Firebase project ID used for token verification and Firestore")
	flag.StringVar(&cfg.firestoreDatabase, "firestore-database", "(default)", "Firestore database ID")
	flag.StringVar(&cfg.identityEndpoint, "identity-endpoint", identity.DefaultEndpoint,
		"Identity Toolkit API endpoint")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "Log level: trace, debug, info, warn or error")
	flag.BoolVar(&cfg.logJSON, "log-json", false, "Write logs as JSON")

	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "web",
		Level:      hclog.LevelFromString(cfg.logLevel),
		JSONFormat: cfg.logJSON,
		Output:     os.Stderr,
	})

	infoLog := logger.StandardLogger(&hclog.StandardLoggerOptions{ForceLevel: hclog.Info})
	errorLog := logger.StandardLogger(&hclog.StandardLoggerOptions{ForceLevel: hclog.Error})

	if err := run(cfg, logger, infoLog, errorLog); err != nil {
		errorLog.Fatal(err)
	}
}

func run(cfg config, logger hclog.Logger, infoLog, errorLog *log.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Every opened resource registers its Close here; all are closed on the way out.
	var closers []func() error
	defer func() {
		var result *multierror.Error
		for i := len(closers) - 1; i >= 0; i-- {
			result = multierror.Append(result, closers[i]())
		}
		err = multierror.Append(result, err).ErrorOrNil()
	}()

	provider, verifier, err := openIdentity(ctx, cfg, logger)
	if err != nil {
		return err
	}

	users := models.UserModelInterface(&models.MemoryUserModel{})
	if cfg.firebaseProject != "" {
		client, err := openFirestore(ctx, cfg.firebaseProject, cfg.firestoreDatabase)
		if err != nil {
			return err
		}
		closers = append(closers, client.Close)
		users = &models.UserModel{Client: client, Collection: UsersCollection}
	} else {
		infoLog.Print("No Firebase project configured, user documents are kept in memory")
	}

	templateCache, err := newTemplateCache()
	if err != nil {
		return err
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = SessionLifetime

	authEvents := models.AuthEventModelInterface(&models.MemoryAuthEventModel{Capacity: AuthEventCapacity})

	if cfg.dsn != "" {
		db, err := openDB(cfg.dsn)
		if err != nil {
			return err
		}
		closers = append(closers, db.Close)

		version, err := migrations.Up(db)
		if err != nil {
			return err
		}
		infoLog.Printf("Database schema at version %d", version)

		sessionManager.Store = mysqlstore.New(db)
		authEvents = &models.AuthEventModel{DB: db}
	}

	app := &application{
		debug:          cfg.debug,
		errorLog:       errorLog,
		infoLog:        infoLog,
		provider:       provider,
		verifier:       verifier,
		users:          users,
		authEvents:     authEvents,
		templateCache:  templateCache,
		formDecoder:    form.NewDecoder(),
		sessionManager: sessionManager,
	}

	srv := &http.Server{
		Addr:         cfg.addr,
		Handler:      app.routes(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
		ErrorLog:     errorLog,
	}

	serveErr := make(chan error, 1)
	go func() {
		infoLog.Printf("Starting server on %s", cfg.addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	infoLog.Print("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// openIdentity selects the Firebase provider when an API key is configured and the local development
// provider otherwise.
func openIdentity(ctx context.Context, cfg config, logger hclog.Logger) (identity.Provider, identity.Verifier, error) {
	if cfg.firebaseAPIKey == "" {
		local, err := identity.NewLocalProvider(identity.LocalConfig{ProjectID: cfg.firebaseProject, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		logger.Warn("no Firebase API key configured, using the local development identity provider")
		return local, local, nil
	}

	if cfg.firebaseProject == "" {
		return nil, nil, errors.New("-firebase-project is required with -firebase-api-key")
	}

	client := cleanhttp.DefaultPooledClient()

	provider, err := identity.NewFirebaseProvider(identity.FirebaseConfig{
		APIKey:     cfg.firebaseAPIKey,
		Endpoint:   cfg.identityEndpoint,
		HTTPClient: client,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}

	verifier, err := identity.NewFirebaseVerifier(ctx, cfg.firebaseProject, "", client)
	if err != nil {
		return nil, nil, err
	}

	return provider, verifier, nil
}

// openFirestore connects to the named Firestore database of a project.
func openFirestore(ctx context.Context, projectID, database string) (*firestore.Client, error) {
	var (
		client *firestore.Client
		err    error
	)

	if database != "" && database != "(default)" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, database)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("firestore client initialization: %w", err)
	}

	return client, nil
}

// openDB wraps sql.Open and returns a sql.DB connection pool for a given data source name
func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("database pool initialization: %w", err) // wrapped error
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database connection: %w", err)
	}

	return db, nil
}
