package rentalsvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
	rentalsvc "github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/service/rental"
)

type cleanerRepoMock struct {
	expiringFn func(ctx context.Context, day time.Time) ([]model.Rental, error)
	deletedOn  []time.Time
	deleteN    int64
}

func (m *cleanerRepoMock) ExpiringOn(ctx context.Context, day time.Time) ([]model.Rental, error) {
	return m.expiringFn(ctx, day)
}
func (m *cleanerRepoMock) DeleteExpiringOn(ctx context.Context, day time.Time) (int64, error) {
	m.deletedOn = append(m.deletedOn, day)
	return m.deleteN, nil
}

func TestExpireDue(t *testing.T) {
	var listedOn time.Time
	m := &cleanerRepoMock{
		expiringFn: func(ctx context.Context, day time.Time) ([]model.Rental, error) {
			listedOn = day
			return []model.Rental{
				{UserID: 1, BookID: 5, ExpireDate: day},
				{UserID: 2, BookID: 9, ExpireDate: day},
			}, nil
		},
		deleteN: 2,
	}

	c := rentalsvc.NewCleaner(m, discard())
	n, err := c.ExpireDue(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	// the sweep targets rentals expiring today, date-truncated
	today := time.Now().UTC().Truncate(24 * time.Hour)
	require.Equal(t, today, listedOn)
	require.Len(t, m.deletedOn, 1)
	require.Equal(t, listedOn, m.deletedOn[0], "list and delete must use the same cutoff")
}

func TestExpireDue_NothingDue(t *testing.T) {
	m := &cleanerRepoMock{
		expiringFn: func(ctx context.Context, day time.Time) ([]model.Rental, error) {
			return nil, nil
		},
	}
	c := rentalsvc.NewCleaner(m, discard())
	n, err := c.ExpireDue(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}
