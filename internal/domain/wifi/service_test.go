package wifi

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roamgrid/roamgrid/internal/domain/auth"
	apperrors "github.com/roamgrid/roamgrid/pkg/errors"
)

func newTestService() (Service, *memRepo) {
	repo := newMemRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, logger), repo
}

func member(id int64) auth.Identity {
	return auth.Identity{ID: id, Role: auth.RoleUser}
}

func moderator(id int64) auth.Identity {
	return auth.Identity{ID: id, Role: auth.RoleModerator}
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), member(1), CreateRequest{SSID: "  ", Latitude: 10, Longitude: 10})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = svc.Create(context.Background(), member(1), CreateRequest{SSID: "CafeNet", Latitude: 91, Longitude: 10})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	point, err := svc.Create(context.Background(), member(1), CreateRequest{
		SSID: " CafeNet ", Name: "Corner Cafe", Latitude: 41.38, Longitude: 2.17, Security: "wpa2",
	})
	require.NoError(t, err)
	require.Equal(t, "CafeNet", point.SSID)
	require.Equal(t, int64(1), point.OwnerID)
	require.Equal(t, StatusPending, point.Status)
}

func TestService_UpdateOwnership(t *testing.T) {
	svc, _ := newTestService()

	point, err := svc.Create(context.Background(), member(1), CreateRequest{SSID: "CafeNet", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), member(2), point.ID, UpdateRequest{Name: "Hijacked"})
	require.True(t, apperrors.IsCode(err, "forbidden"))

	updated, err := svc.Update(context.Background(), member(1), point.ID, UpdateRequest{Name: "Renamed"})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)

	// Elevated roles can edit anyone's point.
	updated, err = svc.Update(context.Background(), moderator(99), point.ID, UpdateRequest{Security: "wpa3"})
	require.NoError(t, err)
	require.Equal(t, "wpa3", updated.Security)

	_, err = svc.Update(context.Background(), member(1), 404, UpdateRequest{Name: "x"})
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestService_DeleteOwnership(t *testing.T) {
	svc, _ := newTestService()

	point, err := svc.Create(context.Background(), member(1), CreateRequest{SSID: "CafeNet", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	require.True(t, apperrors.IsCode(svc.Delete(context.Background(), member(2), point.ID), "forbidden"))
	require.NoError(t, svc.Delete(context.Background(), member(1), point.ID))

	_, err = svc.Get(context.Background(), point.ID)
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestService_SecurityReports(t *testing.T) {
	svc, repo := newTestService()

	point, err := svc.Create(context.Background(), member(1), CreateRequest{SSID: "CafeNet", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	_, err = svc.ReportSecurity(context.Background(), member(2), point.ID, ReportRequest{Category: ""})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = svc.ReportSecurity(context.Background(), member(2), 404, ReportRequest{Category: "rogue-ap"})
	require.True(t, apperrors.IsCode(err, "not_found"))

	report, err := svc.ReportSecurity(context.Background(), member(2), point.ID, ReportRequest{Category: "rogue-ap", Details: "evil twin"})
	require.NoError(t, err)
	require.True(t, report.Open)
	require.Equal(t, int64(2), report.ReporterID)

	// Age the report past the retention window and run the sweep.
	repo.ageReport(report.ID, 31*24*time.Hour)
	closed, err := svc.ExpireStaleReports(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), closed)

	closed, err = svc.ExpireStaleReports(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	require.Zero(t, closed)
}

// memRepo is an in-memory Repository test double.
type memRepo struct {
	mu      sync.Mutex
	nextID  int64
	points  map[int64]Point
	reports map[int64]SecurityReport
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, points: make(map[int64]Point), reports: make(map[int64]SecurityReport)}
}

func (r *memRepo) Create(_ context.Context, point Point) (Point, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	point.ID = r.nextID
	r.nextID++
	now := time.Now()
	point.CreatedAt = now
	point.UpdatedAt = now
	r.points[point.ID] = point
	return point, nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (Point, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	point, ok := r.points[id]
	return point, ok, nil
}

func (r *memRepo) List(_ context.Context, limit, offset int) ([]Point, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Point
	for id := int64(1); id < r.nextID; id++ {
		if point, ok := r.points[id]; ok {
			out = append(out, point)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) Update(_ context.Context, point Point) (Point, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	point.UpdatedAt = time.Now()
	r.points[point.ID] = point
	return point, nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.points, id)
	return nil
}

func (r *memRepo) CreateReport(_ context.Context, report SecurityReport) (SecurityReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report.ID = r.nextID
	r.nextID++
	report.CreatedAt = time.Now()
	r.reports[report.ID] = report
	return report, nil
}

func (r *memRepo) CloseReportsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var closed int64
	for id, report := range r.reports {
		if report.Open && report.CreatedAt.Before(cutoff) {
			report.Open = false
			r.reports[id] = report
			closed++
		}
	}
	return closed, nil
}

func (r *memRepo) ageReport(id int64, by time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report := r.reports[id]
	report.CreatedAt = report.CreatedAt.Add(-by)
	r.reports[id] = report
}

var _ Repository = (*memRepo)(nil)
