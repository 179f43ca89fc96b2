package plan

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

var variantCols = []string{"id", "org_id", "plan_type_id", "duration_days", "duration_label", "price", "is_active", "created_at", "updated_at"}

func TestRepository_CreateVariant(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO plan_variants")).
		WithArgs(org, 1, 30, "1 Month", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(variantCols).
			AddRow(3, org, 1, 30, "1 Month", "1000.00", true, now, now))

	v, err := repo.CreateVariant(context.Background(), org, PlanVariant{
		PlanTypeID: 1, DurationDays: 30, DurationLabel: "1 Month", Price: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, v.ID)
	assert.True(t, v.Price.Equal(decimal.NewFromInt(1000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetVariantDetail(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	cols := append(append([]string{}, variantCols...), "plan_type_name", "plan_type_category", "plan_type_active")
	mock.ExpectQuery(regexp.QuoteMeta("JOIN plan_types t ON t.id = v.plan_type_id")).
		WithArgs(org, 3).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(3, org, 1, 30, "1 Month", "1000.00", true, now, now, "Gold", "membership", false))

	d, err := repo.GetVariantDetail(context.Background(), org, 3)
	require.NoError(t, err)
	assert.Equal(t, "Gold", d.PlanTypeName)
	assert.Equal(t, CategoryMembership, d.PlanTypeCategory)
	assert.False(t, d.PlanTypeActive)
	assert.Equal(t, 30, d.DurationDays)
}

func TestRepository_SetTypeActive_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE plan_types")).
		WithArgs(org, 99, false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetTypeActive(context.Background(), org, 99, false)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRepository_DeleteVariant(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM plan_variants")).
		WithArgs(org, 1, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteVariant(context.Background(), org, 1, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListTypes(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM plan_types")).
		WithArgs(org, "training", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "name", "description", "category", "is_active", "created_at", "updated_at"}).
			AddRow(1, org, "PT", "", "training", true, now, now))

	types, err := repo.ListTypes(context.Background(), org, TypeFilter{Category: CategoryTraining, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "PT", types[0].Name)
}
