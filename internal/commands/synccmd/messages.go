package synccmd

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const syncRepositoryMessageType = "docsync.sync_repository"

// Trigger values accepted on a SyncRepositoryCommand.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerStartup   = "startup"
)

// SyncRepositoryCommand requests one synchronization pass against the
// configured upstream repository. Trigger records what initiated the pass so
// log entries can be attributed.
type SyncRepositoryCommand struct {
	Trigger string `json:"trigger"`
}

// Type implements command.Message.
func (SyncRepositoryCommand) Type() string { return syncRepositoryMessageType }

// Validate ensures the trigger is one of the known origins.
func (cmd SyncRepositoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Trigger,
			validation.Required,
			validation.In(TriggerManual, TriggerScheduled, TriggerStartup),
		),
	)
}
