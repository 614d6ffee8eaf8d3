package wifi

import "time"

// Point statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Point is a crowdsourced Wi-Fi access point.
type Point struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"ownerId"`
	SSID      string    `json:"ssid"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Security  string    `json:"security,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SecurityReport flags a point as compromised or misconfigured.
type SecurityReport struct {
	ID         int64     `json:"id"`
	PointID    int64     `json:"pointId"`
	ReporterID int64     `json:"reporterId"`
	Category   string    `json:"category"`
	Details    string    `json:"details,omitempty"`
	Open       bool      `json:"open"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateRequest captures the submission payload.
type CreateRequest struct {
	SSID      string  `json:"ssid"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Security  string  `json:"security"`
}

// UpdateRequest carries the editable point fields.
type UpdateRequest struct {
	Name     string `json:"name"`
	Security string `json:"security"`
}

// ReportRequest captures a security report submission.
type ReportRequest struct {
	Category string `json:"category"`
	Details  string `json:"details"`
}
