package escrow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/anshimpay/anshim/internal/auth"
	"github.com/anshimpay/anshim/internal/contract"
	"github.com/anshimpay/anshim/internal/escrow"
)

func adminPrincipal() auth.Principal {
	return auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin}
}

func customerPrincipal(userID uuid.UUID) auth.Principal {
	return auth.Principal{UserID: userID, Role: auth.RoleCustomer}
}

func TestLedger_Deposit(t *testing.T) {
	customerID := uuid.New()
	contractID := uuid.New()

	type args struct {
		principal auth.Principal
		params    escrow.DepositParams
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *escrow.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "DepositActivatesPendingContract",
			args: args{
				principal: customerPrincipal(customerID),
				params: escrow.DepositParams{
					ContractID: contractID,
					Amount:     1_000_000,
					Kind:       escrow.KindDeposit,
				},
			},
			setupMock: func(m *escrow.MockRepository) {
				m.EXPECT().
					GetContract(gomock.Any(), contractID).
					Return(&contract.Contract{
						ID:         contractID,
						CustomerID: customerID,
						Status:     contract.StatusPending,
					}, nil)
				m.EXPECT().
					CreateDeposit(gomock.Any(), gomock.Any(), true).
					DoAndReturn(func(_ context.Context, p *escrow.Payment, _ bool) error {
						p.ID = uuid.New()
						p.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{
			name: "MidPaymentDoesNotActivate",
			args: args{
				principal: customerPrincipal(customerID),
				params: escrow.DepositParams{
					ContractID: contractID,
					Amount:     500_000,
					Kind:       escrow.KindMid,
				},
			},
			setupMock: func(m *escrow.MockRepository) {
				m.EXPECT().
					GetContract(gomock.Any(), contractID).
					Return(&contract.Contract{
						ID:         contractID,
						CustomerID: customerID,
						Status:     contract.StatusInProgress,
					}, nil)
				m.EXPECT().
					CreateDeposit(gomock.Any(), gomock.Any(), false).
					Return(nil)
			},
		},
		{
			name: "ZeroAmount",
			args: args{
				principal: customerPrincipal(customerID),
				params: escrow.DepositParams{
					ContractID: contractID,
					Amount:     0,
					Kind:       escrow.KindDeposit,
				},
			},
			wantErr: escrow.ErrInvalidAmount,
		},
		{
			name: "NegativeAmount",
			args: args{
				principal: customerPrincipal(customerID),
				params: escrow.DepositParams{
					ContractID: contractID,
					Amount:     -100,
					Kind:       escrow.KindDeposit,
				},
			},
			wantErr: escrow.ErrInvalidAmount,
		},
		{
			name: "UnknownKind",
			args: args{
				principal: customerPrincipal(customerID),
				params: escrow.DepositParams{
					ContractID: contractID,
					Amount:     100,
					Kind:       escrow.Kind("bonus"),
				},
			},
			wantErr: escrow.ErrInvalidKind,
		},
		{
			name: "ContractMissing",
			args: args{
				principal: customerPrincipal(customerID),
				params: escrow.DepositParams{
					ContractID: contractID,
					Amount:     100,
					Kind:       escrow.KindDeposit,
				},
			},
			setupMock: func(m *escrow.MockRepository) {
				m.EXPECT().
					GetContract(gomock.Any(), contractID).
					Return(nil, contract.ErrNotFound)
			},
			wantErr: escrow.ErrInvalidContract,
		},
		{
			name: "ContractCancelled",
			args: args{
				principal: customerPrincipal(customerID),
				params: escrow.DepositParams{
					ContractID: contractID,
					Amount:     100,
					Kind:       escrow.KindDeposit,
				},
			},
			setupMock: func(m *escrow.MockRepository) {
				m.EXPECT().
					GetContract(gomock.Any(), contractID).
					Return(&contract.Contract{
						ID:         contractID,
						CustomerID: customerID,
						Status:     contract.StatusCancelled,
					}, nil)
			},
			wantErr: escrow.ErrInvalidContract,
		},
		{
			name: "NotTheContractOwner",
			args: args{
				principal: customerPrincipal(uuid.New()),
				params: escrow.DepositParams{
					ContractID: contractID,
					Amount:     100,
					Kind:       escrow.KindDeposit,
				},
			},
			setupMock: func(m *escrow.MockRepository) {
				m.EXPECT().
					GetContract(gomock.Any(), contractID).
					Return(&contract.Contract{
						ID:         contractID,
						CustomerID: customerID,
						Status:     contract.StatusPending,
					}, nil)
			},
			wantErr: escrow.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := escrow.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			ledger := escrow.NewLedger(repo)
			got, err := ledger.Deposit(context.Background(), tt.args.principal, tt.args.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, escrow.StatusHeld, got.Status)
			assert.Equal(t, tt.args.params.Amount, got.Amount)
		})
	}
}

func TestLedger_RequestApproval(t *testing.T) {
	customerID := uuid.New()
	contractID := uuid.New()
	paymentID := uuid.New()

	owned := &contract.Contract{ID: contractID, CustomerID: customerID, Status: contract.StatusInProgress}

	t.Run("HeldMovesToPendingApproval", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().
			GetPayment(gomock.Any(), paymentID).
			Return(&escrow.Payment{ID: paymentID, ContractID: contractID, Status: escrow.StatusHeld}, nil)
		repo.EXPECT().GetContract(gomock.Any(), contractID).Return(owned, nil)
		repo.EXPECT().
			MarkPendingApproval(gomock.Any(), paymentID).
			Return(&escrow.Payment{ID: paymentID, ContractID: contractID, Status: escrow.StatusPendingApproval}, nil)

		ledger := escrow.NewLedger(repo)
		got, err := ledger.RequestApproval(context.Background(), customerPrincipal(customerID), paymentID)

		require.NoError(t, err)
		assert.Equal(t, escrow.StatusPendingApproval, got.Status)
	})

	t.Run("AlreadyUnderReview", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().
			GetPayment(gomock.Any(), paymentID).
			Return(&escrow.Payment{ID: paymentID, ContractID: contractID, Status: escrow.StatusPendingApproval}, nil)
		repo.EXPECT().GetContract(gomock.Any(), contractID).Return(owned, nil)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.RequestApproval(context.Background(), customerPrincipal(customerID), paymentID)

		assert.ErrorIs(t, err, escrow.ErrIllegalTransition)
	})

	t.Run("TerminalPayment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().
			GetPayment(gomock.Any(), paymentID).
			Return(&escrow.Payment{ID: paymentID, ContractID: contractID, Status: escrow.StatusRefunded}, nil)
		repo.EXPECT().GetContract(gomock.Any(), contractID).Return(owned, nil)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.RequestApproval(context.Background(), customerPrincipal(customerID), paymentID)

		assert.ErrorIs(t, err, escrow.ErrIllegalTransition)
	})

	t.Run("NotTheOwner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().
			GetPayment(gomock.Any(), paymentID).
			Return(&escrow.Payment{ID: paymentID, ContractID: contractID, Status: escrow.StatusHeld}, nil)
		repo.EXPECT().GetContract(gomock.Any(), contractID).Return(owned, nil)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.RequestApproval(context.Background(), customerPrincipal(uuid.New()), paymentID)

		assert.ErrorIs(t, err, escrow.ErrUnauthorized)
	})

	t.Run("NotFound", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().GetPayment(gomock.Any(), paymentID).Return(nil, escrow.ErrNotFound)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.RequestApproval(context.Background(), customerPrincipal(customerID), paymentID)

		assert.ErrorIs(t, err, escrow.ErrNotFound)
	})
}

func TestLedger_Approve(t *testing.T) {
	contractID := uuid.New()
	paymentID := uuid.New()

	t.Run("ReleasesPendingApproval", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		releasedAt := time.Now()

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().
			GetPayment(gomock.Any(), paymentID).
			Return(&escrow.Payment{ID: paymentID, ContractID: contractID, Status: escrow.StatusPendingApproval}, nil)
		repo.EXPECT().
			Release(gomock.Any(), paymentID).
			Return(&escrow.Payment{
				ID:         paymentID,
				ContractID: contractID,
				Status:     escrow.StatusReleased,
				ReleasedAt: &releasedAt,
			}, nil)

		ledger := escrow.NewLedger(repo)
		got, err := ledger.Approve(context.Background(), adminPrincipal(), paymentID)

		require.NoError(t, err)
		assert.Equal(t, escrow.StatusReleased, got.Status)
		require.NotNil(t, got.ReleasedAt)
	})

	t.Run("NonAdmin", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.Approve(context.Background(), customerPrincipal(uuid.New()), paymentID)

		assert.ErrorIs(t, err, escrow.ErrUnauthorized)
	})

	t.Run("NotUnderReview", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().
			GetPayment(gomock.Any(), paymentID).
			Return(&escrow.Payment{ID: paymentID, ContractID: contractID, Status: escrow.StatusHeld}, nil)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.Approve(context.Background(), adminPrincipal(), paymentID)

		assert.ErrorIs(t, err, escrow.ErrIllegalTransition)
	})

	// A retried approve that raced a winning first attempt must observe
	// a conflict, never overwrite released_at.
	t.Run("DoubleApproveLosesRace", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().
			GetPayment(gomock.Any(), paymentID).
			Return(&escrow.Payment{ID: paymentID, ContractID: contractID, Status: escrow.StatusPendingApproval}, nil)
		// The conditional update matched zero rows: the sibling request won.
		repo.EXPECT().
			Release(gomock.Any(), paymentID).
			Return(nil, escrow.ErrIllegalTransition)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.Approve(context.Background(), adminPrincipal(), paymentID)

		assert.ErrorIs(t, err, escrow.ErrIllegalTransition)
	})
}

func TestLedger_Reject(t *testing.T) {
	contractID := uuid.New()
	paymentID := uuid.New()

	t.Run("EmptyReason", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.Reject(context.Background(), adminPrincipal(), paymentID, "")

		assert.ErrorIs(t, err, escrow.ErrMissingReason)
	})

	t.Run("WhitespaceReason", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.Reject(context.Background(), adminPrincipal(), paymentID, "   ")

		assert.ErrorIs(t, err, escrow.ErrMissingReason)
	})

	t.Run("ReturnsToHeldWithReason", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		reason := "누수 확인 필요"

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().
			GetPayment(gomock.Any(), paymentID).
			Return(&escrow.Payment{ID: paymentID, ContractID: contractID, Status: escrow.StatusPendingApproval}, nil)
		repo.EXPECT().
			ReturnToHeld(gomock.Any(), paymentID, reason).
			Return(&escrow.Payment{
				ID:           paymentID,
				ContractID:   contractID,
				Status:       escrow.StatusHeld,
				RejectReason: reason,
			}, nil)

		ledger := escrow.NewLedger(repo)
		got, err := ledger.Reject(context.Background(), adminPrincipal(), paymentID, reason)

		require.NoError(t, err)
		assert.Equal(t, escrow.StatusHeld, got.Status)
		assert.Equal(t, reason, got.RejectReason)
	})

	t.Run("NonAdmin", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.Reject(context.Background(), customerPrincipal(uuid.New()), paymentID, "reason")

		assert.ErrorIs(t, err, escrow.ErrUnauthorized)
	})

	t.Run("NotUnderReview", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().
			GetPayment(gomock.Any(), paymentID).
			Return(&escrow.Payment{ID: paymentID, ContractID: contractID, Status: escrow.StatusReleased}, nil)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.Reject(context.Background(), adminPrincipal(), paymentID, "too late")

		assert.ErrorIs(t, err, escrow.ErrIllegalTransition)
	})
}

func TestLedger_Refund(t *testing.T) {
	customerID := uuid.New()
	contractID := uuid.New()
	paymentID := uuid.New()

	owned := &contract.Contract{ID: contractID, CustomerID: customerID, Status: contract.StatusInProgress}

	t.Run("RefundsHeldPayment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		refundedAt := time.Now()

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().
			GetPayment(gomock.Any(), paymentID).
			Return(&escrow.Payment{ID: paymentID, ContractID: contractID, Status: escrow.StatusHeld}, nil)
		repo.EXPECT().GetContract(gomock.Any(), contractID).Return(owned, nil)
		repo.EXPECT().
			Refund(gomock.Any(), paymentID).
			Return(&escrow.Payment{
				ID:         paymentID,
				ContractID: contractID,
				Status:     escrow.StatusRefunded,
				RefundedAt: &refundedAt,
			}, nil)

		ledger := escrow.NewLedger(repo)
		got, err := ledger.Refund(context.Background(), customerPrincipal(customerID), paymentID)

		require.NoError(t, err)
		assert.Equal(t, escrow.StatusRefunded, got.Status)
		require.NotNil(t, got.RefundedAt)
	})

	t.Run("AlreadyReleased", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		releasedAt := time.Now().Add(-time.Hour)
		released := &escrow.Payment{
			ID:         paymentID,
			ContractID: contractID,
			Status:     escrow.StatusReleased,
			ReleasedAt: &releasedAt,
		}

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().GetPayment(gomock.Any(), paymentID).Return(released, nil)
		repo.EXPECT().GetContract(gomock.Any(), contractID).Return(owned, nil)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.Refund(context.Background(), customerPrincipal(customerID), paymentID)

		assert.ErrorIs(t, err, escrow.ErrIllegalTransition)
		// The settled payment is untouched.
		assert.Equal(t, escrow.StatusReleased, released.Status)
		assert.Equal(t, releasedAt, *released.ReleasedAt)
		assert.Nil(t, released.RefundedAt)
	})

	t.Run("UnderReview", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().
			GetPayment(gomock.Any(), paymentID).
			Return(&escrow.Payment{ID: paymentID, ContractID: contractID, Status: escrow.StatusPendingApproval}, nil)
		repo.EXPECT().GetContract(gomock.Any(), contractID).Return(owned, nil)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.Refund(context.Background(), customerPrincipal(customerID), paymentID)

		assert.ErrorIs(t, err, escrow.ErrIllegalTransition)
	})

	t.Run("NotTheOwner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := escrow.NewMockRepository(ctrl)
		repo.EXPECT().
			GetPayment(gomock.Any(), paymentID).
			Return(&escrow.Payment{ID: paymentID, ContractID: contractID, Status: escrow.StatusHeld}, nil)
		repo.EXPECT().GetContract(gomock.Any(), contractID).Return(owned, nil)

		ledger := escrow.NewLedger(repo)
		_, err := ledger.Refund(context.Background(), customerPrincipal(uuid.New()), paymentID)

		assert.ErrorIs(t, err, escrow.ErrUnauthorized)
	})
}

func TestLedger_List_PropagatesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := escrow.NewMockRepository(ctrl)
	repo.EXPECT().
		ListPayments(gomock.Any(), escrow.ListFilter{}).
		Return(nil, errors.New("connection reset"))

	ledger := escrow.NewLedger(repo)
	_, err := ledger.List(context.Background(), escrow.ListFilter{})

	assert.Error(t, err)
}
