// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, credentials, tracing)
// that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/JaimeStill/wayfinder/internal/config"
	"github.com/JaimeStill/wayfinder/pkg/database"
	"github.com/JaimeStill/wayfinder/pkg/lifecycle"
	"github.com/JaimeStill/wayfinder/pkg/storage"
	"github.com/JaimeStill/wayfinder/pkg/tracing"
)

const serviceName = "wayfinder"

// Infrastructure holds the core systems required by all domain modules.
// Storage and Credential are nil when not configured.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	Database   database.System
	Storage    storage.System
	Credential azcore.TokenCredential

	shutdownTracing tracing.ShutdownFunc
	traceOutput     io.Closer
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cred, err := NewCredential(cfg.Azure.Credential)
	if err != nil {
		return nil, fmt.Errorf("credential init failed: %w", err)
	}

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle:  lc,
		Logger:     logger,
		Database:   db,
		Credential: cred,
	}

	if cfg.Storage.Enabled() {
		store, err := storage.New(&cfg.Storage, cred, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	} else {
		logger.Info("storage disabled, activity archival off")
	}

	if cfg.Tracing.Enabled {
		w, closer, err := traceWriter(cfg.Tracing.Output)
		if err != nil {
			return nil, fmt.Errorf("tracing init failed: %w", err)
		}

		shutdown, err := tracing.Init(serviceName, cfg.Version, w)
		if err != nil {
			return nil, fmt.Errorf("tracing init failed: %w", err)
		}
		infra.shutdownTracing = shutdown
		infra.traceOutput = closer
	}

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}

	if i.shutdownTracing != nil {
		i.Lifecycle.OnShutdown(func() {
			<-i.Lifecycle.Context().Done()
			if err := i.shutdownTracing(context.Background()); err != nil {
				i.Logger.Error("tracing shutdown failed", "error", err)
			}
			if i.traceOutput != nil {
				i.traceOutput.Close()
			}
		})
	}

	return nil
}

func traceWriter(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open trace output: %w", err)
		}
		return f, f, nil
	}
}
