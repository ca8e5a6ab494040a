package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service records and lists audit events. Record is best-effort from the
// caller's point of view: failures are logged, never propagated into the
// business operation being audited.
type Service interface {
	Record(ctx context.Context, actorID *snowflake.ID, action, objectType, objectID string, detail map[string]any)
	List(ctx context.Context, filter ListRequest) ([]Event, error)
}

type ListRequest struct {
	ObjectType string
	ObjectID   string
	ActorID    *snowflake.ID
	Since      *time.Time
	Until      *time.Time
	Limit      int
}
