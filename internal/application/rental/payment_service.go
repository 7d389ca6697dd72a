package rental

import (
	"context"

	appaudit "github.com/fleetrent/backend/internal/application/audit"
	"github.com/fleetrent/backend/internal/application/authz"
	"github.com/fleetrent/backend/internal/domain/rental"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService exposes the payment read surface and settlement
type PaymentService struct {
	paymentRepo  rental.PaymentRepository
	contractRepo rental.ContractRepository
	recorder     *appaudit.Recorder
	logger       *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo rental.PaymentRepository,
	contractRepo rental.ContractRepository,
	recorder *appaudit.Recorder,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:  paymentRepo,
		contractRepo: contractRepo,
		recorder:     recorder,
		logger:       logger,
	}
}

// ListForContract returns the payments attached to one of the
// company's contracts
func (s *PaymentService) ListForContract(ctx context.Context, grant *authz.Grant, contractID uuid.UUID) ([]*rental.Payment, error) {
	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		return nil, authz.ErrForbidden
	}
	if _, err := s.contractRepo.FindByIDForCompany(ctx, companyID, contractID); err != nil {
		return nil, err
	}
	return s.paymentRepo.FindByContractID(ctx, contractID)
}

// Settle marks a pending payment as collected
func (s *PaymentService) Settle(ctx context.Context, grant *authz.Grant, paymentID uuid.UUID) (*rental.Payment, error) {
	payment, err := s.findForCompany(ctx, grant, paymentID)
	if err != nil {
		return nil, err
	}

	if err := payment.Settle(); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("Payment settled",
		zap.String("payment_id", payment.ID.String()),
		zap.String("contract_id", payment.ContractID.String()))

	s.recorder.Record(ctx, grant.Scope, "payment.settle",
		appaudit.WithEntity("payment", payment.ID))
	return payment, nil
}

// Void cancels a pending payment
func (s *PaymentService) Void(ctx context.Context, grant *authz.Grant, paymentID uuid.UUID) (*rental.Payment, error) {
	payment, err := s.findForCompany(ctx, grant, paymentID)
	if err != nil {
		return nil, err
	}

	if err := payment.Void(); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, grant.Scope, "payment.void",
		appaudit.WithEntity("payment", payment.ID))
	return payment, nil
}

func (s *PaymentService) findForCompany(ctx context.Context, grant *authz.Grant, paymentID uuid.UUID) (*rental.Payment, error) {
	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		return nil, authz.ErrForbidden
	}

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	// Another company's payment reads as absent, not forbidden, so the
	// response does not reveal whether the id exists.
	if payment.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	return payment, nil
}
