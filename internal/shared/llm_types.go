package shared

import (
	"time"
)

// Outcome values recorded for every generation attempt.
const (
	OutcomeSuccess = "success"
)

// TokenUsage tracks the tokens consumed by a single LLM call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta holds operational metadata for one pipeline execution.
// Outcome is OutcomeSuccess or the failure kind reported by the pipeline.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
	Outcome   string
}

// Failed reports whether the execution ended in anything but success.
func (m AgentMeta) Failed() bool {
	return m.Outcome != OutcomeSuccess
}
