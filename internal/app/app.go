package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	emailapp "mailsort/internal/application/email"
	"mailsort/internal/infrastructure/browser"
	"mailsort/internal/infrastructure/config"
	"mailsort/internal/infrastructure/crypto"
	"mailsort/internal/infrastructure/gmail"
	"mailsort/internal/infrastructure/llm"
	"mailsort/internal/infrastructure/oneclick"
	"mailsort/internal/infrastructure/persistence/sqlite"
	"mailsort/internal/infrastructure/pubsub"
	"mailsort/internal/interfaces/httpapi"
	pubsubHandler "mailsort/internal/interfaces/pubsub"
	"mailsort/internal/interfaces/worker"
)

const (
	shutdownTimeout = 10 * time.Second
	sessionSweep    = time.Hour
	oneClickTimeout = 15 * time.Second
)

// App owns every long-lived component of the server.
type App struct {
	db         *sql.DB
	sessions   *sqlite.SessionRepository
	browser    *browser.Executor
	pool       *worker.Pool
	subscriber *pubsub.Subscriber
	push       *pubsubHandler.Handler
	server     *http.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	defaults, err := config.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("categories error: %w", err)
	}

	// SQLite
	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite error: %w", err)
	}
	a := &App{db: db}

	sealer, err := crypto.NewSealer(cfg.EncryptionKey)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("sealer error: %w", err)
	}

	// LLM client
	llmClient, err := llm.NewClient(cfg.OpenAIAPIKey, cfg.ModelName)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("llm client error: %w", err)
	}

	users := sqlite.NewUserRepository(db)
	categories := sqlite.NewCategoryRepository(db)
	emails := sqlite.NewEmailRepository(db)
	a.sessions = sqlite.NewSessionRepository(db)

	oauth := gmail.NewOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
	mailboxes := gmail.NewMailboxes(oauth, sealer)
	a.browser = browser.NewExecutor(llmClient, cfg.Headless)

	categoriesUC := emailapp.NewCategoriesUseCase(categories)
	syncUC := emailapp.NewSyncEmailsUseCase(users, categories, emails, mailboxes, llmClient, cfg.SyncMaxResults)
	unsubscribeUC := emailapp.NewUnsubscribeUseCase(
		emails, users, mailboxes, a.browser,
		oneclick.NewPoster(oneClickTimeout),
		rate.NewLimiter(rate.Every(cfg.UnsubscribeInterval), 1),
	)

	// Worker pool
	a.pool = worker.NewPool(cfg.NumWorkers, syncUC, rate.NewLimiter(rate.Every(200*time.Millisecond), cfg.NumWorkers))

	deps := httpapi.Deps{
		Auth:        oauth,
		Sessions:    a.sessions,
		Users:       users,
		Login:       emailapp.NewLoginUseCase(users, categoriesUC, mailboxes, sealer, defaults, cfg.TopicName),
		Categories:  categoriesUC,
		Emails:      emailapp.NewManageEmailsUseCase(emails, categories, users, mailboxes),
		Sync:        syncUC,
		Categorize:  emailapp.NewCategorizeEmailUseCase(emails, categories, llmClient),
		Unsubscribe: unsubscribeUC,
		FrontendURL: cfg.FrontendURL,
	}

	// Pub/Sub subscriber
	if cfg.PushEnabled() {
		a.subscriber, err = pubsub.NewSubscriber(ctx, cfg.GoogleCloudProject, cfg.SubscriptionID)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("pubsub error: %w", err)
		}
		a.push = pubsubHandler.NewHandler(users, a.pool)
		deps.AfterLogin = func(userID string) { a.pool.Submit(worker.SyncJob{UserID: userID}) }
	}

	a.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewHandler(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run serves until ctx is cancelled or a component fails, then stops the
// worker pool. Queued sync jobs are dropped at that point.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	a.pool.Start(ctx)
	defer a.pool.Shutdown()

	g.Go(func() error {
		log.Printf("HTTP server listening on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	if a.subscriber != nil {
		g.Go(func() error {
			err := a.subscriber.Listen(ctx, a.push.HandleNotification)
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("pubsub listener: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		a.sweepSessions(ctx)
		return nil
	})

	return g.Wait()
}

func (a *App) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionSweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.sessions.DeleteExpired(ctx)
			if err != nil {
				log.Printf("Failed to delete expired sessions: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Deleted %d expired sessions", n)
			}
		}
	}
}

func (a *App) Close() {
	if a.browser != nil {
		a.browser.Close()
	}
	if a.subscriber != nil {
		if err := a.subscriber.Close(); err != nil {
			log.Printf("Failed to close subscriber: %v", err)
		}
	}
	if err := a.db.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}
