package core

import "time"

// Stats is the payload of GET /stats.
type Stats struct {
	TotalClusters  int `json:"total_clusters"`
	ActiveClusters int `json:"active_clusters"`
	TotalAreas     int `json:"total_areas"`
	ActiveAreas    int `json:"active_areas"`
	TotalTags      int `json:"total_tags"`
	ActiveTags     int `json:"active_tags"`
	// TagUsage maps tag slug to the number of areas carrying it
	TagUsage map[string]int `json:"tag_usage,omitempty"`
}

// Health is the payload of GET /health.
type Health struct {
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Database  string    `json:"database,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Healthy reports whether the backend reports an ok status.
func (h Health) Healthy() bool {
	return h.Status == "ok" || h.Status == "healthy"
}
