package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anshimpay/anshim/internal/reconcile/store"
)

var contractColumns = []string{
	"id", "customer_id", "partner_id", "title", "status",
	"total_amount", "deposit_code", "created_at", "updated_at",
}

func TestFindContractByMemo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	defer db.Close()

	contractID := uuid.New()
	customerID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("ILIKE").
		WithArgs("중도금 AS-3F2A9B1C").
		WillReturnRows(sqlmock.NewRows(contractColumns).
			AddRow(contractID, customerID, nil, "욕실 리모델링", "in_progress",
				int64(3_500_000), "AS-3F2A9B1C", now, nil))

	s := store.New(db)
	c, err := s.FindContractByMemo(context.Background(), "중도금 AS-3F2A9B1C")

	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, contractID, c.ID)
	assert.Equal(t, "AS-3F2A9B1C", c.DepositCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindContractByMemo_NoMatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	defer db.Close()

	mock.ExpectQuery("ILIKE").
		WithArgs("이사비").
		WillReturnRows(sqlmock.NewRows(contractColumns))

	s := store.New(db)
	c, err := s.FindContractByMemo(context.Background(), "이사비")

	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}
