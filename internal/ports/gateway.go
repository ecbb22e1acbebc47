package ports

// EmailGateway defines the interface for an inbound email ingestion service
type EmailGateway interface {
	// Start starts the gateway
	Start() error

	// Stop stops the gateway
	Stop() error
}
