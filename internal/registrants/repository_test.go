package registrants

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepositorySave(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepository(mock)
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO registrants").
		WithArgs(pgxmock.AnyArg(), "psid-1", "09171234567", 27, "Juan Dela Cruz", false).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("reg-1", created))

	reg, err := repo.Save(context.Background(), SaveRequest{
		CustomerID: "psid-1",
		Mobile:     "09171234567",
		Age:        27,
		Name:       "Juan Dela Cruz",
	})
	require.NoError(t, err)
	assert.Equal(t, "reg-1", reg.ID)
	assert.Equal(t, created, reg.CreatedAt)
	assert.Equal(t, "Juan Dela Cruz", reg.Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositorySaveErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPostgresRepository(mock)

	_, err = repo.Save(context.Background(), SaveRequest{CustomerID: "psid-1"})
	assert.Error(t, err, "name is required")

	mock.ExpectQuery("INSERT INTO registrants").WillReturnError(errors.New("connection refused"))
	_, err = repo.Save(context.Background(), SaveRequest{CustomerID: "psid-1", Name: "Juan"})
	assert.ErrorContains(t, err, "registrants: upsert failed")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInMemoryRepositoryUpserts(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first, err := repo.Save(ctx, SaveRequest{CustomerID: "psid-1", Name: "Juan", Age: 20})
	require.NoError(t, err)
	second, err := repo.Save(ctx, SaveRequest{CustomerID: "psid-1", Name: "Juan Dela Cruz", Age: 21})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.GetByCustomerID(ctx, "psid-1")
	require.NoError(t, err)
	assert.Equal(t, "Juan Dela Cruz", got.Name)
	assert.Equal(t, 21, got.Age)

	_, err = repo.GetByCustomerID(ctx, "psid-2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Save(ctx, SaveRequest{Name: "nobody"})
	assert.Error(t, err)
}
