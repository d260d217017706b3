package health

import "context"

// AssistantChecker checks language-model provider availability.
type AssistantChecker interface {
	HealthCheck(ctx context.Context) error
}
