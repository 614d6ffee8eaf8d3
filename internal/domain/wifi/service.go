package wifi

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/roamgrid/roamgrid/internal/domain/auth"
	apperrors "github.com/roamgrid/roamgrid/pkg/errors"
)

// Service exposes the Wi-Fi point workflows. Mutations receive the
// request's identity so ownership checks stay next to the data they guard.
type Service interface {
	Create(ctx context.Context, identity auth.Identity, req CreateRequest) (Point, error)
	Get(ctx context.Context, id int64) (Point, error)
	List(ctx context.Context, limit, offset int) ([]Point, error)
	Update(ctx context.Context, identity auth.Identity, id int64, req UpdateRequest) (Point, error)
	Delete(ctx context.Context, identity auth.Identity, id int64) error
	ReportSecurity(ctx context.Context, identity auth.Identity, pointID int64, req ReportRequest) (SecurityReport, error)
	ExpireStaleReports(ctx context.Context, maxAge time.Duration) (int64, error)
}

type service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service instance.
func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{repo: repo, logger: logger.With("component", "wifi.service")}
}

func (s *service) Create(ctx context.Context, identity auth.Identity, req CreateRequest) (Point, error) {
	if strings.TrimSpace(req.SSID) == "" {
		return Point{}, apperrors.Wrap("invalid_input", "ssid cannot be empty", nil)
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return Point{}, apperrors.Wrap("invalid_input", "coordinates out of range", nil)
	}
	point := Point{
		OwnerID:   identity.ID,
		SSID:      strings.TrimSpace(req.SSID),
		Name:      strings.TrimSpace(req.Name),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Security:  strings.TrimSpace(req.Security),
		Status:    StatusPending,
	}
	created, err := s.repo.Create(ctx, point)
	if err != nil {
		return Point{}, apperrors.Wrap("wifi_error", "failed to create point", err)
	}
	s.logger.Info("wifi point submitted", "point_id", created.ID, "owner_id", identity.ID)
	return created, nil
}

func (s *service) Get(ctx context.Context, id int64) (Point, error) {
	point, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Point{}, apperrors.Wrap("wifi_error", "failed to load point", err)
	}
	if !found {
		return Point{}, apperrors.Wrap("not_found", "wifi point not found", nil)
	}
	return point, nil
}

func (s *service) List(ctx context.Context, limit, offset int) ([]Point, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	points, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap("wifi_error", "failed to list points", err)
	}
	return points, nil
}

func (s *service) Update(ctx context.Context, identity auth.Identity, id int64, req UpdateRequest) (Point, error) {
	point, err := s.Get(ctx, id)
	if err != nil {
		return Point{}, err
	}
	if err := s.requireOwnership(identity, point); err != nil {
		return Point{}, err
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		point.Name = name
	}
	if security := strings.TrimSpace(req.Security); security != "" {
		point.Security = security
	}
	updated, err := s.repo.Update(ctx, point)
	if err != nil {
		return Point{}, apperrors.Wrap("wifi_error", "failed to update point", err)
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, identity auth.Identity, id int64) error {
	point, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnership(identity, point); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Wrap("wifi_error", "failed to delete point", err)
	}
	return nil
}

func (s *service) ReportSecurity(ctx context.Context, identity auth.Identity, pointID int64, req ReportRequest) (SecurityReport, error) {
	if strings.TrimSpace(req.Category) == "" {
		return SecurityReport{}, apperrors.Wrap("invalid_input", "category cannot be empty", nil)
	}
	if _, err := s.Get(ctx, pointID); err != nil {
		return SecurityReport{}, err
	}
	report, err := s.repo.CreateReport(ctx, SecurityReport{
		PointID:    pointID,
		ReporterID: identity.ID,
		Category:   strings.TrimSpace(req.Category),
		Details:    strings.TrimSpace(req.Details),
		Open:       true,
	})
	if err != nil {
		return SecurityReport{}, apperrors.Wrap("wifi_error", "failed to create report", err)
	}
	return report, nil
}

// ExpireStaleReports closes open security reports older than maxAge. Called
// by the system-tier cron endpoint.
func (s *service) ExpireStaleReports(ctx context.Context, maxAge time.Duration) (int64, error) {
	closed, err := s.repo.CloseReportsBefore(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, apperrors.Wrap("wifi_error", "failed to expire reports", err)
	}
	if closed > 0 {
		s.logger.Info("stale security reports closed", "count", closed)
	}
	return closed, nil
}

func (s *service) requireOwnership(identity auth.Identity, point Point) error {
	if point.OwnerID == identity.ID || identity.Elevated() {
		return nil
	}
	return apperrors.Wrap("forbidden", "not the owner of this point", nil)
}
