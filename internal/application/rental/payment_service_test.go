package rental

import (
	"context"
	"testing"

	appaudit "github.com/fleetrent/backend/internal/application/audit"
	"github.com/fleetrent/backend/internal/application/authz"
	"github.com/fleetrent/backend/internal/domain/rental"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type paymentFixture struct {
	payments  *MockPaymentRepository
	contracts *MockContractRepository
	trail     *memoryAuditRepo
	service   *PaymentService
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		payments:  new(MockPaymentRepository),
		contracts: new(MockContractRepository),
		trail:     &memoryAuditRepo{},
	}
	recorder := appaudit.NewRecorder(f.trail, zap.NewNop())
	f.service = NewPaymentService(f.payments, f.contracts, recorder, zap.NewNop())
	return f
}

func fixturePayment(t *testing.T, companyID uuid.UUID) *rental.Payment {
	t.Helper()
	payment, err := rental.NewPayment(companyID, uuid.New(), "Rental fee", decimal.NewFromInt(200))
	require.NoError(t, err)
	return payment
}

func TestPaymentService_Settle(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("pending payment settles and is audited", func(t *testing.T) {
		f := newPaymentFixture()
		grant := ownerGrant(companyID)
		payment := fixturePayment(t, companyID)

		f.payments.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
		f.payments.On("Update", mock.Anything, payment).Return(nil)

		settled, err := f.service.Settle(ctx, grant, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, rental.PaymentStatusSettled, settled.Status)
		assert.NotNil(t, settled.SettledAt)

		require.Len(t, f.trail.records, 1)
		assert.Equal(t, "payment.settle", f.trail.records[0].Action)
	})

	t.Run("another company's payment reads as absent", func(t *testing.T) {
		f := newPaymentFixture()
		grant := ownerGrant(companyID)
		payment := fixturePayment(t, uuid.New())

		f.payments.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)

		_, err := f.service.Settle(ctx, grant, payment.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NotErrorIs(t, err, authz.ErrForbidden)
		f.payments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("grant without company is rejected", func(t *testing.T) {
		f := newPaymentFixture()
		grant := clientGrant()

		_, err := f.service.Settle(ctx, grant, uuid.New())
		assert.ErrorIs(t, err, authz.ErrForbidden)
		f.payments.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("settled payment cannot settle again", func(t *testing.T) {
		f := newPaymentFixture()
		grant := ownerGrant(companyID)
		payment := fixturePayment(t, companyID)
		require.NoError(t, payment.Settle())

		f.payments.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)

		_, err := f.service.Settle(ctx, grant, payment.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		f.payments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestPaymentService_Void(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("pending payment voids", func(t *testing.T) {
		f := newPaymentFixture()
		grant := ownerGrant(companyID)
		payment := fixturePayment(t, companyID)

		f.payments.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
		f.payments.On("Update", mock.Anything, payment).Return(nil)

		voided, err := f.service.Void(ctx, grant, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, rental.PaymentStatusVoided, voided.Status)

		require.Len(t, f.trail.records, 1)
		assert.Equal(t, "payment.void", f.trail.records[0].Action)
	})

	t.Run("cross-company void reads as absent", func(t *testing.T) {
		f := newPaymentFixture()
		grant := ownerGrant(companyID)
		payment := fixturePayment(t, uuid.New())

		f.payments.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)

		_, err := f.service.Void(ctx, grant, payment.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPaymentService_ListForContract(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("payments listed through company-scoped contract", func(t *testing.T) {
		f := newPaymentFixture()
		grant := ownerGrant(companyID)
		payment := fixturePayment(t, companyID)
		contractID := payment.ContractID

		f.contracts.On("FindByIDForCompany", mock.Anything, companyID, contractID).
			Return(&rental.Contract{}, nil)
		f.payments.On("FindByContractID", mock.Anything, contractID).
			Return([]*rental.Payment{payment}, nil)

		payments, err := f.service.ListForContract(ctx, grant, contractID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, payment.ID, payments[0].ID)
	})

	t.Run("contract outside the company blocks the listing", func(t *testing.T) {
		f := newPaymentFixture()
		grant := ownerGrant(companyID)
		contractID := uuid.New()

		f.contracts.On("FindByIDForCompany", mock.Anything, companyID, contractID).
			Return(nil, shared.ErrNotFound)

		_, err := f.service.ListForContract(ctx, grant, contractID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		f.payments.AssertNotCalled(t, "FindByContractID", mock.Anything, mock.Anything)
	})
}
