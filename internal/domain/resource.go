package domain

// Resource names a metered resource.
type Resource string

// Metered resources.
const (
	ResourceAgents Resource = "agents"
	ResourceTokens Resource = "tokens"
	ResourceCalls  Resource = "calls"
)
