package audit

import (
	"encoding/json"
	"strings"

	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Record is a single audit trail entry. Records are append-only and
// written after the fact; a failed write never affects the operation
// it describes.
type Record struct {
	shared.BaseEntity
	ActorID      uuid.UUID     `gorm:"type:uuid;not null;index"`
	ActorRole    identity.Role `gorm:"not null"`
	CompanyID    *uuid.UUID    `gorm:"type:uuid;index"` // Company context, when any
	Impersonated bool          // True when an admin acted as the company
	Action       string        `gorm:"not null;index"`
	EntityType   string
	EntityID     *uuid.UUID      `gorm:"type:uuid"`
	Detail       json.RawMessage `gorm:"type:jsonb"`
	BeforeState  json.RawMessage `gorm:"type:jsonb"` // Entity snapshot before the mutation, when captured
	AfterState   json.RawMessage `gorm:"type:jsonb"` // Entity snapshot after the mutation, when captured
}

// TableName returns the database table name
func (Record) TableName() string {
	return "audit_logs"
}

// NewRecord creates an audit record for the given actor and action
func NewRecord(actor identity.Scope, action string) (*Record, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, shared.NewDomainError("INVALID_AUDIT_ACTION", "Action cannot be empty")
	}
	if actor.UserID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AUDIT_ACTOR", "Actor cannot be empty")
	}

	return &Record{
		BaseEntity:   shared.NewBaseEntity(),
		ActorID:      actor.UserID,
		ActorRole:    actor.Role,
		CompanyID:    actor.CompanyID,
		Impersonated: actor.Impersonated,
		Action:       action,
	}, nil
}

// WithEntity attaches the affected entity to the record
func (r *Record) WithEntity(entityType string, entityID uuid.UUID) *Record {
	r.EntityType = entityType
	r.EntityID = &entityID
	return r
}

// WithDetail attaches a JSON detail payload. Marshal failures leave
// the detail empty rather than failing the record.
func (r *Record) WithDetail(detail interface{}) *Record {
	r.Detail = marshalState(detail)
	return r
}

// WithBefore captures the entity state before the mutation
func (r *Record) WithBefore(state interface{}) *Record {
	r.BeforeState = marshalState(state)
	return r
}

// WithAfter captures the entity state after the mutation
func (r *Record) WithAfter(state interface{}) *Record {
	r.AfterState = marshalState(state)
	return r
}

func marshalState(state interface{}) json.RawMessage {
	if state == nil {
		return nil
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return nil
	}
	return raw
}
