package wifirepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roamgrid/roamgrid/internal/domain/wifi"
)

const pointColumns = `id, owner_id, ssid, name, latitude, longitude, security, status, created_at, updated_at`

// PostgresRepository persists wifi points and security reports in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new point row.
func (r *PostgresRepository) Create(ctx context.Context, point wifi.Point) (wifi.Point, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO wifi_points (owner_id, ssid, name, latitude, longitude, security, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+pointColumns+`
	`, point.OwnerID, point.SSID, point.Name, point.Latitude, point.Longitude, point.Security, point.Status)
	return scanPoint(row)
}

// GetByID fetches by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (wifi.Point, bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pointColumns+` FROM wifi_points WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		return wifi.Point{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return wifi.Point{}, false, rows.Err()
	}
	point, err := scanPoint(rows)
	if err != nil {
		return wifi.Point{}, false, err
	}
	return point, true, rows.Err()
}

// List returns points ordered by id.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]wifi.Point, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pointColumns+` FROM wifi_points ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var points []wifi.Point
	for rows.Next() {
		point, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, rows.Err()
}

// Update writes the editable point fields.
func (r *PostgresRepository) Update(ctx context.Context, point wifi.Point) (wifi.Point, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE wifi_points SET name = $2, security = $3, status = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+pointColumns+`
	`, point.ID, point.Name, point.Security, point.Status)
	return scanPoint(row)
}

// Delete removes a point row.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM wifi_points WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CreateReport inserts a security report row.
func (r *PostgresRepository) CreateReport(ctx context.Context, report wifi.SecurityReport) (wifi.SecurityReport, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO wifi_security_reports (point_id, reporter_id, category, details, open)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, point_id, reporter_id, category, details, open, created_at
	`, report.PointID, report.ReporterID, report.Category, report.Details, report.Open)
	var out wifi.SecurityReport
	var created time.Time
	if err := row.Scan(&out.ID, &out.PointID, &out.ReporterID, &out.Category, &out.Details, &out.Open, &created); err != nil {
		return wifi.SecurityReport{}, err
	}
	out.CreatedAt = created.UTC()
	return out, nil
}

// CloseReportsBefore closes open reports created before the cutoff.
func (r *PostgresRepository) CloseReportsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE wifi_security_reports SET open = FALSE WHERE open AND created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoint(row rowScanner) (wifi.Point, error) {
	var point wifi.Point
	var created, updated time.Time
	if err := row.Scan(
		&point.ID, &point.OwnerID, &point.SSID, &point.Name,
		&point.Latitude, &point.Longitude, &point.Security, &point.Status,
		&created, &updated,
	); err != nil {
		return wifi.Point{}, err
	}
	point.CreatedAt = created.UTC()
	point.UpdatedAt = updated.UTC()
	return point, nil
}

var _ wifi.Repository = (*PostgresRepository)(nil)
