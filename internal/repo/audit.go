package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry is one recorded administrative or sensitive action.
type AuditEntry struct {
	ID           string    `json:"id"`
	ActorKind    string    `json:"actorKind"`
	ActorUserID  *string   `json:"actorUserId,omitempty"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resourceType"`
	ResourceID   *string   `json:"resourceId,omitempty"`
	Method       string    `json:"method"`
	Path         string    `json:"path"`
	Route        *string   `json:"route,omitempty"`
	Status       int32     `json:"status"`
	IP           *string   `json:"ip,omitempty"`
	UserAgent    *string   `json:"userAgent,omitempty"`
	RequestID    *string   `json:"requestId,omitempty"`
	Metadata     []byte    `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type AuditRepo struct {
	Pool *pgxpool.Pool
}

func (r AuditRepo) InsertAuditLog(ctx context.Context, e AuditEntry) error {
	const q = `
INSERT INTO audit_logs (actor_kind, actor_user_id, action, resource_type, resource_id,
                        method, path, route, status, ip, user_agent, request_id, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.Pool.Exec(ctx, q,
		e.ActorKind, e.ActorUserID, e.Action, e.ResourceType, e.ResourceID,
		e.Method, e.Path, e.Route, e.Status, e.IP, e.UserAgent, e.RequestID, e.Metadata,
	)
	return err
}

func (r AuditRepo) ListAuditLogs(ctx context.Context, limit, offset int32) ([]AuditEntry, error) {
	const q = `
SELECT id::text, actor_kind, actor_user_id::text, action, resource_type, resource_id,
       method, path, route, status, ip, user_agent, request_id, metadata, created_at
FROM audit_logs
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
	rows, err := r.Pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(
			&e.ID, &e.ActorKind, &e.ActorUserID, &e.Action, &e.ResourceType, &e.ResourceID,
			&e.Method, &e.Path, &e.Route, &e.Status, &e.IP, &e.UserAgent, &e.RequestID, &e.Metadata, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
