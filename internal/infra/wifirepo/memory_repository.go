package wifirepo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/roamgrid/roamgrid/internal/domain/wifi"
)

// MemoryRepository provides an in-memory point store for tests/dev.
type MemoryRepository struct {
	mu        sync.RWMutex
	points    map[int64]wifi.Point
	reports   map[int64]wifi.SecurityReport
	pointSeq  int64
	reportSeq int64
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		points:  make(map[int64]wifi.Point),
		reports: make(map[int64]wifi.SecurityReport),
	}
}

// Create stores the point record.
func (r *MemoryRepository) Create(_ context.Context, point wifi.Point) (wifi.Point, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pointSeq++
	now := time.Now().UTC()
	point.ID = r.pointSeq
	point.CreatedAt = now
	point.UpdatedAt = now
	r.points[point.ID] = point
	return point, nil
}

// GetByID fetches by ID.
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (wifi.Point, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	point, ok := r.points[id]
	return point, ok, nil
}

// List returns points ordered by id.
func (r *MemoryRepository) List(_ context.Context, limit, offset int) ([]wifi.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var points []wifi.Point
	for id := int64(1); id <= r.pointSeq && len(points) < offset+limit; id++ {
		if point, ok := r.points[id]; ok {
			points = append(points, point)
		}
	}
	if offset >= len(points) {
		return nil, nil
	}
	return points[offset:], nil
}

// Update overwrites the stored point.
func (r *MemoryRepository) Update(_ context.Context, point wifi.Point) (wifi.Point, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.points[point.ID]; !ok {
		return wifi.Point{}, errors.New("point not found")
	}
	point.UpdatedAt = time.Now().UTC()
	r.points[point.ID] = point
	return point, nil
}

// Delete removes the point.
func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.points[id]; !ok {
		return errors.New("point not found")
	}
	delete(r.points, id)
	return nil
}

// CreateReport stores the security report.
func (r *MemoryRepository) CreateReport(_ context.Context, report wifi.SecurityReport) (wifi.SecurityReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reportSeq++
	report.ID = r.reportSeq
	report.CreatedAt = time.Now().UTC()
	r.reports[report.ID] = report
	return report, nil
}

// CloseReportsBefore closes open reports created before the cutoff.
func (r *MemoryRepository) CloseReportsBefore(_ context.Context, cutoff time.Time) (int64, error) {
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

var _ wifi.Repository = (*MemoryRepository)(nil)
