package audit

import (
	"context"

	"everpack/internal/core/id"
)

// Action names the audited operation.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionConvert Action = "convert"
	ActionPayment Action = "payment"
)

// Recorder appends entries to the audit trail. Document services call it
// inside their transaction, so the audit entry commits with the change.
// Implemented by the postgres audit service; services treat it as optional.
type Recorder interface {
	Record(ctx context.Context, entityType string, entityID id.ID, action Action, snapshot any) error
}
