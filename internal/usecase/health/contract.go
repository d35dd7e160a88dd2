package health

import "context"

// StorePinger checks usage store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks LLM provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
