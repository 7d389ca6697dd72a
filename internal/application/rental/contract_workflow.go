package rental

import (
	"context"
	"fmt"

	appaudit "github.com/fleetrent/backend/internal/application/audit"
	"github.com/fleetrent/backend/internal/application/authz"
	"github.com/fleetrent/backend/internal/domain/audit"
	"github.com/fleetrent/backend/internal/domain/fleet"
	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/domain/rental"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostCommitHook is a named side effect run after the contract
// transaction commits. Hooks must not mutate the contract; a failing
// hook is reported as a warning and never undoes the commit.
type PostCommitHook struct {
	Name string
	Run  func(ctx context.Context, grant *authz.Grant, contract *rental.Contract) error
}

// ContractWorkflow drives the contract lifecycle. The state-changing
// operations are two-phase: an atomic transaction over contract,
// vehicle, and booking, then a list of best-effort post-commit hooks
// (payment rows, audit trail).
type ContractWorkflow struct {
	contractRepo rental.ContractRepository
	vehicleRepo  fleet.VehicleRepository
	bookingRepo  rental.BookingRepository
	paymentRepo  rental.PaymentRepository
	recorder     *appaudit.Recorder
	logger       *zap.Logger
}

// NewContractWorkflow creates a new ContractWorkflow
func NewContractWorkflow(
	contractRepo rental.ContractRepository,
	vehicleRepo fleet.VehicleRepository,
	bookingRepo rental.BookingRepository,
	paymentRepo rental.PaymentRepository,
	recorder *appaudit.Recorder,
	logger *zap.Logger,
) *ContractWorkflow {
	return &ContractWorkflow{
		contractRepo: contractRepo,
		vehicleRepo:  vehicleRepo,
		bookingRepo:  bookingRepo,
		paymentRepo:  paymentRepo,
		recorder:     recorder,
		logger:       logger,
	}
}

// CreateContract opens a contract on an available vehicle. The
// transaction inserts the contract, flips the vehicle to rented under
// the version guard, and fulfills the originating booking; afterwards
// the rental-fee and deposit payment rows and the audit record are
// written as post-commit hooks.
func (w *ContractWorkflow) CreateContract(ctx context.Context, grant *authz.Grant, input CreateContractInput) (*ContractResult, error) {
	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		return nil, authz.ErrForbidden
	}

	// The rate is read here for the total; availability and version
	// are re-checked inside the transaction.
	vehicle, err := w.vehicleRepo.FindByIDForCompany(ctx, companyID, input.VehicleID)
	if err != nil {
		return nil, err
	}

	contract, err := rental.NewContract(companyID, vehicle.ID, input.ClientID,
		input.StartDate, input.EndDate, vehicle.DailyRate, input.Deposit)
	if err != nil {
		return nil, err
	}
	if input.BookingID != nil {
		contract.AttachBooking(*input.BookingID)
	}

	expected := fleet.AnyVersion()
	if input.VehicleVersion != nil {
		expected = fleet.VersionOf(*input.VehicleVersion)
	}

	if err := w.contractRepo.CreateWithVehicle(ctx, contract, expected); err != nil {
		return nil, err
	}

	w.logger.Info("Contract created",
		zap.String("contract_id", contract.ID.String()),
		zap.String("vehicle_id", vehicle.ID.String()),
		zap.String("company_id", companyID.String()))

	warnings := w.runPostCommit(ctx, grant, contract, w.createHooks())
	return &ContractResult{Contract: contract, Warnings: warnings}, nil
}

// CloseContract completes an active contract and frees its vehicle,
// then books the closing fees as pending payments.
func (w *ContractWorkflow) CloseContract(ctx context.Context, grant *authz.Grant, input CloseContractInput) (*ContractResult, error) {
	return w.closeContract(ctx, grant, input.ContractID, input.ClosingFees, "contract.close", nil,
		func(contract *rental.Contract) error { return contract.Complete() })
}

// CancelContract cancels an active contract and frees its vehicle.
// Cancellation penalties ride along as closing fees.
func (w *ContractWorkflow) CancelContract(ctx context.Context, grant *authz.Grant, input CancelContractInput) (*ContractResult, error) {
	var extra map[string]interface{}
	if input.Reason != "" {
		extra = map[string]interface{}{"reason": input.Reason}
	}
	return w.closeContract(ctx, grant, input.ContractID, input.ClosingFees, "contract.cancel", extra,
		func(contract *rental.Contract) error { return contract.Cancel() })
}

func (w *ContractWorkflow) closeContract(ctx context.Context, grant *authz.Grant, contractID uuid.UUID, fees []ClosingFee, action string, extra map[string]interface{}, terminate func(*rental.Contract) error) (*ContractResult, error) {
	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		return nil, authz.ErrForbidden
	}

	contract, err := w.contractRepo.FindByIDForCompany(ctx, companyID, contractID)
	if err != nil {
		return nil, err
	}

	before := contractSnapshot(contract)
	if err := terminate(contract); err != nil {
		return nil, err
	}
	if err := w.contractRepo.CloseWithVehicle(ctx, contract); err != nil {
		return nil, err
	}

	w.logger.Info("Contract closed",
		zap.String("contract_id", contract.ID.String()),
		zap.String("status", string(contract.Status)))

	hooks := []PostCommitHook{w.closingFeesHook(fees), w.auditHook(action, before, extra)}
	warnings := w.runPostCommit(ctx, grant, contract, hooks)
	return &ContractResult{Contract: contract, Warnings: warnings}, nil
}

// ListContracts returns the contracts visible to the grant: company
// staff see their company's contracts, clients their own.
func (w *ContractWorkflow) ListContracts(ctx context.Context, grant *authz.Grant, filter rental.ContractFilter) ([]*rental.Contract, int64, error) {
	if grant.Scope.Role == identity.RoleClient {
		return w.contractRepo.FindAllForClient(ctx, grant.Principal, filter)
	}

	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		return nil, 0, authz.ErrForbidden
	}
	return w.contractRepo.FindAllForCompany(ctx, companyID, filter)
}

// GetContract returns one contract visible to the grant
func (w *ContractWorkflow) GetContract(ctx context.Context, grant *authz.Grant, contractID uuid.UUID) (*rental.Contract, error) {
	if grant.Scope.Role == identity.RoleClient {
		contract, err := w.contractRepo.FindByID(ctx, contractID)
		if err != nil {
			return nil, err
		}
		if contract.ClientID != grant.Principal {
			return nil, shared.ErrNotFound
		}
		return contract, nil
	}

	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		return nil, authz.ErrForbidden
	}
	return w.contractRepo.FindByIDForCompany(ctx, companyID, contractID)
}

func (w *ContractWorkflow) runPostCommit(ctx context.Context, grant *authz.Grant, contract *rental.Contract, hooks []PostCommitHook) []string {
	var warnings []string
	for _, hook := range hooks {
		if err := hook.Run(ctx, grant, contract); err != nil {
			w.logger.Error("Post-commit hook failed",
				zap.String("hook", hook.Name),
				zap.String("contract_id", contract.ID.String()),
				zap.Error(err))
			warnings = append(warnings, fmt.Sprintf("%s: %v", hook.Name, err))
		}
	}
	return warnings
}

func (w *ContractWorkflow) createHooks() []PostCommitHook {
	return []PostCommitHook{
		{
			Name: "rental_payments",
			Run: func(ctx context.Context, _ *authz.Grant, contract *rental.Contract) error {
				fee, err := rental.NewPayment(contract.CompanyID, contract.ID, "rental fee", contract.TotalAmount)
				if err != nil {
					return err
				}
				if err := w.paymentRepo.Create(ctx, fee); err != nil {
					return err
				}

				if contract.Deposit.IsPositive() {
					deposit, err := rental.NewPayment(contract.CompanyID, contract.ID, "deposit", contract.Deposit)
					if err != nil {
						return err
					}
					if err := w.paymentRepo.Create(ctx, deposit); err != nil {
						return err
					}
				}
				return nil
			},
		},
		w.auditHook("contract.create", nil, nil),
	}
}

func (w *ContractWorkflow) closingFeesHook(fees []ClosingFee) PostCommitHook {
	return PostCommitHook{
		Name: "closing_fees",
		Run: func(ctx context.Context, _ *authz.Grant, contract *rental.Contract) error {
			for _, fee := range fees {
				payment, err := rental.NewPayment(contract.CompanyID, contract.ID, fee.Label, fee.Amount)
				if err != nil {
					return err
				}
				if err := w.paymentRepo.Create(ctx, payment); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// auditHook records the lifecycle action with the contract states
// around it. Creation has no before state; terminations pass the
// snapshot taken before the status flip.
func (w *ContractWorkflow) auditHook(action string, before map[string]interface{}, extra map[string]interface{}) PostCommitHook {
	return PostCommitHook{
		Name: "audit",
		Run: func(ctx context.Context, grant *authz.Grant, contract *rental.Contract) error {
			detail := map[string]interface{}{
				"vehicle_id": contract.VehicleID,
				"client_id":  contract.ClientID,
			}
			for k, v := range extra {
				detail[k] = v
			}
			opts := []func(*audit.Record){
				appaudit.WithEntity("contract", contract.ID),
				appaudit.WithDetail(detail),
				appaudit.WithAfter(contractSnapshot(contract)),
			}
			if before != nil {
				opts = append(opts, appaudit.WithBefore(before))
			}
			w.recorder.Record(ctx, grant.Scope, action, opts...)
			return nil
		},
	}
}

// contractSnapshot freezes the auditable contract fields at a point in
// time. Money renders as fixed two-decimal strings.
func contractSnapshot(contract *rental.Contract) map[string]interface{} {
	snapshot := map[string]interface{}{
		"vehicle_id":   contract.VehicleID,
		"client_id":    contract.ClientID,
		"start_date":   contract.StartDate,
		"end_date":     contract.EndDate,
		"daily_rate":   contract.DailyRate.StringFixed(2),
		"total_amount": contract.TotalAmount.StringFixed(2),
		"deposit":      contract.Deposit.StringFixed(2),
		"status":       contract.Status,
		"version":      contract.Version,
	}
	if contract.ClosedAt != nil {
		snapshot["closed_at"] = contract.ClosedAt
	}
	return snapshot
}
