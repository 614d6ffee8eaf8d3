package wifi

import (
	"context"
	"time"
)

// Repository abstracts point and report persistence.
type Repository interface {
	Create(ctx context.Context, point Point) (Point, error)
	GetByID(ctx context.Context, id int64) (Point, bool, error)
	List(ctx context.Context, limit, offset int) ([]Point, error)
	Update(ctx context.Context, point Point) (Point, error)
	Delete(ctx context.Context, id int64) error
	CreateReport(ctx context.Context, report SecurityReport) (SecurityReport, error)
	CloseReportsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
