package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual collaborator.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LastChecked string `json:"lastChecked"`
}

// LifecycleMetrics is returned by GET /v1/metrics/lifecycle.
type LifecycleMetrics struct {
	TransitionsTotal    int64   `json:"transitionsTotal"`
	TransitionsRejected int64   `json:"transitionsRejected"`
	WithdrawalsTotal    int64   `json:"withdrawalsTotal"`
	WithdrawalsDenied   int64   `json:"withdrawalsDenied"`
	ConversionFallbacks int64   `json:"conversionFallbacks"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	Period              string  `json:"period"`
}
