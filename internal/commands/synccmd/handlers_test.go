package synccmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

type stubEngine struct {
	calls int
	err   error
}

func (s *stubEngine) Sync(context.Context) error {
	s.calls++
	return s.err
}

func TestSyncRepositoryHandlerExecutes(t *testing.T) {
	engine := &stubEngine{}
	handler, err := NewSyncRepositoryHandler(engine, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	if err := handler.Execute(context.Background(), SyncRepositoryCommand{Trigger: TriggerManual}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if engine.calls != 1 {
		t.Fatalf("expected one sync pass, got %d", engine.calls)
	}
}

func TestSyncRepositoryHandlerValidatesTrigger(t *testing.T) {
	engine := &stubEngine{}
	handler, err := NewSyncRepositoryHandler(engine, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	err = handler.Execute(context.Background(), SyncRepositoryCommand{Trigger: "cron"})
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if engine.calls != 0 {
		t.Fatalf("expected no sync pass on invalid trigger")
	}
}

func TestSyncRepositoryHandlerWrapsEngineFailure(t *testing.T) {
	engine := &stubEngine{err: errors.New("upstream exploded")}
	handler, err := NewSyncRepositoryHandler(engine, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	err = handler.Execute(context.Background(), SyncRepositoryCommand{Trigger: TriggerScheduled})
	if err == nil {
		t.Fatalf("expected execution failure")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestNewSyncRepositoryHandlerRequiresEngine(t *testing.T) {
	if _, err := NewSyncRepositoryHandler(nil, nil); !errors.Is(err, ErrEngineRequired) {
		t.Fatalf("expected ErrEngineRequired, got %v", err)
	}
}
