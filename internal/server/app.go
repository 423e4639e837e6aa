// Package server wires the vault, services and HTTP API together and runs
// them until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/totpkeeper/internal/backup"
	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/filex"
	"github.com/dmitrijs2005/totpkeeper/internal/logging"
	"github.com/dmitrijs2005/totpkeeper/internal/server/config"
	"github.com/dmitrijs2005/totpkeeper/internal/server/entries"
	"github.com/dmitrijs2005/totpkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/totpkeeper/internal/server/operator"
	"github.com/dmitrijs2005/totpkeeper/internal/totp"
	"github.com/dmitrijs2005/totpkeeper/internal/vault"
)

var errRestoreWithoutBackup = errors.New("restore requested but no backup bucket is configured")

// newBackupSyncer builds the remote store for the data file; replaced in tests.
var newBackupSyncer = func(ctx context.Context, cfg backup.Config) (vault.Syncer, error) {
	return backup.NewS3Syncer(ctx, cfg)
}

type App struct {
	config *config.Config
	logger logging.Logger
	vault  *vault.Vault
	http   *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogLevel, c.LogFormat, os.Stdout)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.KDFParams().Validate(); err != nil {
		return nil, err
	}
	if _, err := filex.EnsureParentDir(c.DataFile); err != nil {
		return nil, fmt.Errorf("data dir init error: %w", err)
	}

	opts := []vault.Option{
		vault.WithKDFParams(c.KDFParams()),
		vault.WithPasswordCost(c.PasswordCost),
		vault.WithLogger(logger),
	}

	if c.BackupEnabled() {
		syncer, err := newBackupSyncer(ctx, backup.Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			ObjectKey:    c.S3ObjectKey,
		})
		if err != nil {
			return nil, fmt.Errorf("backup init error: %w", err)
		}
		opts = append(opts, vault.WithSyncer(syncer))
	}

	v := vault.New(c.DataFile, opts...)
	engine := totp.NewEngine(nil)

	ops := operator.NewService(v, engine, []byte(c.SecretKey), c.TokenTTL, c.PasswordCost, logger)
	es := entries.NewService(v, engine, logger)
	hs := httpapi.NewHTTPServer(c.ListenAddr, logger, v, ops, es, c.TokenTTL)

	return &App{config: c, logger: logger, vault: v, http: hs}, nil
}

// Bootstrap prepares the vault at startup. With -r the data file is first
// replaced by the backup copy. The vault is then unlocked when a master
// password is given through the environment or, with -i, typed at the
// terminal. Otherwise the server starts locked and waits for /api/unlock.
func (app *App) Bootstrap(ctx context.Context) error {
	if app.config.Restore {
		if err := app.restore(ctx); err != nil {
			return err
		}
	}

	var password []byte

	switch {
	case app.config.MasterPassword != "":
		password = []byte(app.config.MasterPassword)
		app.config.MasterPassword = ""
	case app.config.Interactive:
		pw, err := promptPassword(os.Stderr, "Master password: ")
		if err != nil {
			return fmt.Errorf("read master password: %w", err)
		}
		password = pw
	default:
		app.logger.Info(ctx, "Starting locked, waiting for unlock")
		return nil
	}
	defer common.WipeByteArray(password)

	if _, err := app.vault.Unlock(ctx, password); err != nil {
		return err
	}
	return nil
}

func (app *App) restore(ctx context.Context) error {
	if !app.config.BackupEnabled() {
		return errRestoreWithoutBackup
	}
	if err := app.vault.SyncPull(ctx); err != nil {
		return fmt.Errorf("restore from backup: %w", err)
	}
	app.logger.Info(ctx, "Data file restored from backup", "path", app.vault.Path())
	return nil
}

// initSignalHandler cancels on the first termination signal. The returned
// channel is closed once the handler has stopped listening, after a signal
// or when ctx is done.
func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) <-chan struct{} {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
	return stopped
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or a termination signal arrives. The
// vault is locked before Run returns.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	stopped := app.initSignalHandler(ctx, cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	cancelFunc()
	<-stopped

	app.vault.Lock()
	app.logger.Info(context.Background(), "Stopped")

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
