// Package synccmd exposes the synchronization pass as a go-command handler so
// the HTTP trigger and the interval scheduler share one execution path.
package synccmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-docsync/internal/commands"
	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

const syncOperation = "docsync.sync_repository"

// ErrEngineRequired is returned when a handler is built without a sync engine.
var ErrEngineRequired = errors.New("sync command: engine is required")

// Engine is the slice of the sync engine the handler depends on.
type Engine interface {
	Sync(ctx context.Context) error
}

var _ command.Commander[SyncRepositoryCommand] = (*SyncRepositoryHandler)(nil)

// SyncRepositoryHandler runs one sync pass through the shared handler
// foundation.
type SyncRepositoryHandler struct {
	inner *commands.Handler[SyncRepositoryCommand]
}

// NewSyncRepositoryHandler creates a handler bound to the supplied engine.
func NewSyncRepositoryHandler(engine Engine, logger interfaces.Logger, opts ...commands.HandlerOption[SyncRepositoryCommand]) (*SyncRepositoryHandler, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg SyncRepositoryCommand) error {
		if err := engine.Sync(ctx); err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"trigger": msg.Trigger,
		}).Info("docsync.command.sync_repository.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[SyncRepositoryCommand]{
		commands.WithLogger[SyncRepositoryCommand](baseLogger),
		commands.WithOperation[SyncRepositoryCommand](syncOperation),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SyncRepositoryHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}, nil
}

// Execute conforms to command.Commander[SyncRepositoryCommand].
func (h *SyncRepositoryHandler) Execute(ctx context.Context, msg SyncRepositoryCommand) error {
	return h.inner.Execute(ctx, msg)
}
