package database

import (
	"context"
	"time"

	"docstack/internal/util"

	"github.com/google/uuid"
)

// AuditEntryRecord rows are append-only; nothing in the core updates or
// deletes them.
type AuditEntryRecord struct {
	ID          uuid.UUID
	ActorID     util.Optional[string]
	Action      string
	EntityKind  string
	EntityID    string
	Description string
	OccurredAt  time.Time
	IPAddress   string
	UserAgent   string
}

func (db *Database) CreateAuditEntry(ctx context.Context, entry AuditEntryRecord) error {
	_, err := db.Pool.Exec(ctx, `INSERT INTO tbl_audit_entry (id, actor_id, action, entity_kind, entity_id, description, occurred_at, ip_address, user_agent) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.ActorID, entry.Action, entry.EntityKind, entry.EntityID,
		entry.Description, entry.OccurredAt, entry.IPAddress, entry.UserAgent)
	return err
}

// ListAuditEntriesByEntity returns entries for one subject, most recent first.
func (db *Database) ListAuditEntriesByEntity(ctx context.Context, entityKind, entityID string) ([]AuditEntryRecord, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, actor_id, action, entity_kind, entity_id, description, occurred_at, ip_address, user_agent
		FROM tbl_audit_entry WHERE entity_kind = $1 AND entity_id = $2 ORDER BY occurred_at DESC`, entityKind, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntryRecord
	for rows.Next() {
		var entry AuditEntryRecord
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &entry.EntityKind, &entry.EntityID,
			&entry.Description, &entry.OccurredAt, &entry.IPAddress, &entry.UserAgent); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
