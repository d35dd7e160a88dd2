// Package decision holds the allow/deny results rendered by the limit evaluator.
package decision

import (
	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/limit"
)

// ReasonInactive is the denial reason for inactive accounts.
const ReasonInactive = "account is inactive"

// Agent is the result of an agent-count check.
type Agent struct {
	Allowed      bool        `json:"allowed"`
	CurrentCount int64       `json:"currentCount"`
	Limit        limit.Limit `json:"limit"`
	Remaining    int64       `json:"remaining"`
	Reason       string      `json:"reason,omitempty"`
}

// Token is the result of a monthly token check.
type Token struct {
	Allowed      bool        `json:"allowed"`
	CurrentUsage int64       `json:"currentUsage"`
	Limit        limit.Limit `json:"limit"`
	Remaining    int64       `json:"remaining"`
	WouldExceed  bool        `json:"wouldExceed"`
	Reason       string      `json:"reason,omitempty"`
}

// Call is the result of a daily call check.
type Call struct {
	Allowed      bool        `json:"allowed"`
	CurrentCalls int64       `json:"currentCalls"`
	DailyLimit   limit.Limit `json:"dailyLimit"`
	Reason       string      `json:"reason,omitempty"`
}

// Options selects which checks a combined enforcement runs.
type Options struct {
	CheckAgents bool   `json:"checkAgents,omitempty"`
	CheckTokens *int64 `json:"checkTokens,omitempty"`
	CheckCalls  bool   `json:"checkCalls,omitempty"`
}

// Violation describes one failing check.
type Violation struct {
	Type     domain.Resource `json:"type"`
	Exceeded bool            `json:"exceeded"`
	Detail   string          `json:"detail"`
}

// Combined is the result of a multi-resource enforcement.
type Combined struct {
	Allowed       bool              `json:"allowed"`
	LimitsChecked []domain.Resource `json:"limitsChecked"`
	Violations    []Violation       `json:"violations"`
}
