package store

// HealthStore provides health check operations for the status endpoint
type HealthStore interface {
	// CheckConnectivity verifies the relational store is reachable
	CheckConnectivity() error
}
