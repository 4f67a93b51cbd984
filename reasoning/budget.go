package reasoning

import (
	"github.com/richinex/llao1/llm"
	"github.com/richinex/llao1/model"
)

// DefaultToolBonus is the extra headroom granted after a tool ran.
const DefaultToolBonus = 100

// TokenBudget decides the max output tokens of each structured call.
type TokenBudget struct {
	// Bonus is added when the previous directive named a tool.
	Bonus int
}

// For returns the budget for the call following previous. previous is nil
// for the first step.
func (b TokenBudget) For(thinkingTokens int, previous *model.StepDirective) int {
	if previous != nil && previous.UsesTool() {
		return thinkingTokens + b.Bonus
	}
	return thinkingTokens
}

// Accounting selects how consumed tokens are counted.
type Accounting int

const (
	// AccountReported adds the backend's reported total when available and
	// falls back to the call's budget otherwise.
	AccountReported Accounting = iota
	// AccountBudget adds each call's budget, an estimate rather than a count.
	AccountBudget
)

// String returns the accounting mode name.
func (a Accounting) String() string {
	switch a {
	case AccountBudget:
		return "budget"
	case AccountReported:
		return "reported"
	default:
		return "unknown"
	}
}

// ParseAccounting parses "reported" or "budget"; "" means reported.
func ParseAccounting(s string) (Accounting, bool) {
	switch s {
	case "", "reported":
		return AccountReported, true
	case "budget":
		return AccountBudget, true
	default:
		return AccountReported, false
	}
}

func (a Accounting) charge(budget int, usage *llm.TokenUsage) int {
	if a == AccountReported && usage != nil && usage.TotalTokens > 0 {
		return int(usage.TotalTokens)
	}
	return budget
}
