// Package worker initializes and runs the dedup worker. It opens the
// ledger, builds the blob-store client, wires the workflow orchestrator,
// and sweeps the staging bucket until shut down.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gallerykeeper/internal/digest"
	"github.com/dmitrijs2005/gallerykeeper/internal/ledger"
	"github.com/dmitrijs2005/gallerykeeper/internal/logging"
	"github.com/dmitrijs2005/gallerykeeper/internal/notify"
	"github.com/dmitrijs2005/gallerykeeper/internal/storage"
	"github.com/dmitrijs2005/gallerykeeper/internal/worker/config"
	"github.com/dmitrijs2005/gallerykeeper/internal/workflow"
)

type App struct {
	config *config.Config
	logger logging.Logger
	ledger *ledger.Backend
	poller *notify.Poller
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	backend, err := ledger.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("ledger init error: %w", err)
	}

	s3client, err := storage.NewClient(ctx, storage.ClientConfig{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client init error: %w", err)
	}

	engine, err := digest.NewEngine(c.DigestAlgorithm)
	if err != nil {
		return nil, err
	}

	orchestrator := workflow.NewOrchestrator(
		digest.NewObjectHasher(s3client, engine),
		ledger.NewService(backend),
		storage.NewMover(s3client, c.GalleryBucket),
		logger,
		workflow.Config{
			OwnerID:          c.OwnerID,
			StepTimeout:      c.StepTimeout,
			RetryMaxAttempts: c.RetryMaxAttempts,
			RetryBaseDelay:   c.RetryBaseDelay,
		},
	)

	poller := notify.NewPoller(s3client, orchestrator, logger,
		c.StagingBucket, c.PollInterval, c.WorkerCount)

	return &App{config: c, logger: logger, ledger: backend, poller: poller}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting worker...",
		"staging", app.config.StagingBucket,
		"gallery", app.config.GalleryBucket,
		"algorithm", app.config.DigestAlgorithm)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.poller.Run(ctx); err != nil && ctx.Err() == nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.ledger.DB.Close(); err != nil {
		app.logger.Error(ctx, "ledger close error", "error", err)
	}
}
