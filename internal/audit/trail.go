// Package audit records who did what to which entity. Recording is
// best-effort by contract: a failed write degrades to an operational log
// line and never reaches the caller of the operation being documented.
package audit

import (
	"context"
	"log/slog"
	"time"

	"docstack/internal/database"
	"docstack/internal/util"

	"github.com/google/uuid"
)

type Action string

const (
	ActionUpload       Action = "UPLOAD"
	ActionDownload     Action = "DOWNLOAD"
	ActionView         Action = "VIEW"
	ActionDelete       Action = "DELETE"
	ActionAddUser      Action = "ADD_USER"
	ActionCreateFolder Action = "CREATE_FOLDER"
	ActionDeleteFolder Action = "DELETE_FOLDER"
)

type EntityKind string

const (
	EntityFile   EntityKind = "FILE"
	EntityFolder EntityKind = "FOLDER"
	EntityUser   EntityKind = "USER"
)

// Meta carries the request attribution every mutating operation forwards:
// acting employee, source address, client descriptor. The core does not
// interpret any of it.
type Meta struct {
	ActorID   string // empty for system actions
	IPAddress string
	UserAgent string
}

type Entry struct {
	ID          uuid.UUID
	ActorID     string
	Action      Action
	EntityKind  EntityKind
	EntityID    string
	Description string
	OccurredAt  time.Time
	IPAddress   string
	UserAgent   string
}

// Store is the slice of the metadata store the trail needs.
type Store interface {
	CreateAuditEntry(ctx context.Context, entry database.AuditEntryRecord) error
	ListAuditEntriesByEntity(ctx context.Context, entityKind, entityID string) ([]database.AuditEntryRecord, error)
}

type Trail struct {
	logger *slog.Logger
	store  Store
}

func NewTrail(logger *slog.Logger, store Store) Trail {
	return Trail{logger: logger, store: store}
}

type RecordParams struct {
	Meta        Meta
	Action      Action
	EntityKind  EntityKind
	EntityID    string
	Description string
}

// Record appends one entry. It has no error result: identifier and
// timestamp are assigned here, the write is attempted once, and any failure
// is logged and dropped.
func (t *Trail) Record(ctx context.Context, params RecordParams) {
	actor := util.None[string]()
	if params.Meta.ActorID != "" {
		actor = util.Some(params.Meta.ActorID)
	}

	entry := database.AuditEntryRecord{
		ID:          uuid.New(),
		ActorID:     actor,
		Action:      string(params.Action),
		EntityKind:  string(params.EntityKind),
		EntityID:    params.EntityID,
		Description: params.Description,
		OccurredAt:  time.Now().UTC(),
		IPAddress:   params.Meta.IPAddress,
		UserAgent:   params.Meta.UserAgent,
	}

	if err := t.store.CreateAuditEntry(ctx, entry); err != nil {
		t.logger.Error("failed to record audit entry",
			"action", params.Action,
			"entity_kind", params.EntityKind,
			"entity_id", params.EntityID,
			"error", err,
		)
		return
	}

	t.logger.Debug("audit entry recorded",
		"action", params.Action,
		"entity_kind", params.EntityKind,
		"entity_id", params.EntityID,
		"actor", params.Meta.ActorID,
	)
}

// ByEntity returns the trail for one subject, most recent first. Read
// failures degrade to an empty result; audit is never load-bearing.
func (t *Trail) ByEntity(ctx context.Context, kind EntityKind, entityID string) []Entry {
	records, err := t.store.ListAuditEntriesByEntity(ctx, string(kind), entityID)
	if err != nil {
		t.logger.Error("failed to list audit entries",
			"entity_kind", kind,
			"entity_id", entityID,
			"error", err,
		)
		return []Entry{}
	}

	entries := make([]Entry, len(records))
	for i, rec := range records {
		entries[i] = Entry{
			ID:          rec.ID,
			ActorID:     rec.ActorID.UnwrapOr(""),
			Action:      Action(rec.Action),
			EntityKind:  EntityKind(rec.EntityKind),
			EntityID:    rec.EntityID,
			Description: rec.Description,
			OccurredAt:  rec.OccurredAt,
			IPAddress:   rec.IPAddress,
			UserAgent:   rec.UserAgent,
		}
	}
	return entries
}
