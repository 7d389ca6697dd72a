package audit

import (
	"context"

	"github.com/fleetrent/backend/internal/application/authz"
	"github.com/fleetrent/backend/internal/domain/audit"
	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder writes the audit trail. Writes are synchronous but
// best-effort: a failed insert is logged and swallowed so that the
// audited mutation itself never fails on account of its audit row.
type Recorder struct {
	repo   audit.Repository
	logger *zap.Logger
}

// NewRecorder creates a new Recorder
func NewRecorder(repo audit.Repository, logger *zap.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Record appends one entry to the trail. The actor scope carries the
// real role: an admin acting in company mode is recorded as admin with
// the impersonation flag set.
func (r *Recorder) Record(ctx context.Context, actor identity.Scope, action string, opts ...func(*audit.Record)) {
	record, err := audit.NewRecord(actor, action)
	if err != nil {
		r.logger.Error("Refused to build audit record",
			zap.String("action", action), zap.Error(err))
		return
	}
	for _, opt := range opts {
		opt(record)
	}

	if err := r.repo.Save(ctx, record); err != nil {
		r.logger.Error("Audit write failed",
			zap.String("action", action),
			zap.String("actor_id", actor.UserID.String()),
			zap.Error(err))
	}
}

// WithEntity tags the record with the entity it concerns
func WithEntity(entityType string, entityID uuid.UUID) func(*audit.Record) {
	return func(record *audit.Record) {
		record.WithEntity(entityType, entityID)
	}
}

// WithDetail attaches a JSON detail payload
func WithDetail(detail interface{}) func(*audit.Record) {
	return func(record *audit.Record) {
		record.WithDetail(detail)
	}
}

// WithBefore captures the entity state before the mutation
func WithBefore(state interface{}) func(*audit.Record) {
	return func(record *audit.Record) {
		record.WithBefore(state)
	}
}

// WithAfter captures the entity state after the mutation
func WithAfter(state interface{}) func(*audit.Record) {
	return func(record *audit.Record) {
		record.WithAfter(state)
	}
}

// List returns trail entries visible to the grant. Company staff see
// only their company's trail; a plain admin sees everything.
func (r *Recorder) List(ctx context.Context, grant *authz.Grant, filter audit.Filter) ([]*audit.Record, int64, error) {
	if !grant.Scope.IsAdmin() || grant.Scope.Impersonated {
		companyID, err := grant.Scope.RequireCompany()
		if err != nil {
			return nil, 0, authz.ErrForbidden
		}
		filter.CompanyID = &companyID
	}
	return r.repo.FindAll(ctx, filter)
}

// Clear wipes trail entries. Admin only; the wipe itself is audited.
func (r *Recorder) Clear(ctx context.Context, grant *authz.Grant, companyID *uuid.UUID) (int64, error) {
	if !grant.Scope.IsAdmin() || grant.Scope.Impersonated {
		return 0, authz.ErrForbidden
	}

	var (
		deleted int64
		err     error
	)
	if companyID != nil {
		deleted, err = r.repo.DeleteForCompany(ctx, *companyID)
	} else {
		deleted, err = r.repo.DeleteAll(ctx)
	}
	if err != nil {
		return 0, err
	}

	r.Record(ctx, grant.Scope, "audit.clear", WithDetail(map[string]interface{}{
		"deleted":    deleted,
		"company_id": companyID,
	}))

	return deleted, nil
}
