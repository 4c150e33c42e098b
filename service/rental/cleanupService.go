package rentalsvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/thangnhox/doAnTotNghiep-BackEnd-sub000/model"
)

type CleanerRepo interface {
	ExpiringOn(ctx context.Context, day time.Time) ([]model.Rental, error)
	DeleteExpiringOn(ctx context.Context, day time.Time) (int64, error)
}

// Cleaner retires rental entitlements on their expiry date. The schedule is
// derived from persisted rows, so a missed run is recovered by the startup
// sweep rather than lost with an in-memory timer.
type Cleaner interface {
	ExpireDue(ctx context.Context) (int64, error)
	Run(ctx context.Context)
}

type cleaner struct {
	r   CleanerRepo
	log *slog.Logger
	now func() time.Time
}

func NewCleaner(r CleanerRepo, log *slog.Logger) Cleaner {
	return &cleaner{r: r, log: log, now: time.Now}
}

func (c *cleaner) ExpireDue(ctx context.Context) (int64, error) {
	today := c.now().UTC().Truncate(24 * time.Hour)

	due, err := c.r.ExpiringOn(ctx, today)
	if err != nil {
		return 0, err
	}
	for _, rt := range due {
		c.log.Info("rental expired", "user_id", rt.UserID, "book_id", rt.BookID, "expire_date", rt.ExpireDate)
	}
	return c.r.DeleteExpiringOn(ctx, today)
}

// Run sweeps once immediately, then once per day until ctx is cancelled.
func (c *cleaner) Run(ctx context.Context) {
	sweep := func() {
		n, err := c.ExpireDue(ctx)
		if err != nil {
			c.log.Error("expiry sweep failed", "err", err)
			return
		}
		c.log.Info("expiry sweep done", "removed", n)
	}
	sweep()

	t := time.NewTicker(24 * time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sweep()
		}
	}
}
