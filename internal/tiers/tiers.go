// Package tiers resolves subscription plans to their resource budgets.
package tiers

import (
	"fmt"

	"github.com/avatarforge/autorig/pkg/rig"
)

// Provider looks up tier budgets by plan identifier. The table is loaded
// once and read-only afterwards, so lookups are safe from concurrent
// pipeline invocations.
type Provider struct {
	budgets map[string]rig.TierBudget
}

// NewProvider builds a provider over the given plan table.
func NewProvider(budgets map[string]rig.TierBudget) *Provider {
	table := make(map[string]rig.TierBudget, len(budgets))
	for plan, budget := range budgets {
		table[plan] = budget
	}
	return &Provider{budgets: table}
}

// Lookup returns the budget for a plan. Unknown plans fail with
// rig.ErrBudgetNotFound; no default budget is ever invented.
func (p *Provider) Lookup(planID string) (rig.TierBudget, error) {
	budget, ok := p.budgets[planID]
	if !ok {
		return rig.TierBudget{}, fmt.Errorf("%w: %q", rig.ErrBudgetNotFound, planID)
	}
	return budget, nil
}

// Plans returns the known plan identifiers.
func (p *Provider) Plans() []string {
	plans := make([]string, 0, len(p.budgets))
	for plan := range p.budgets {
		plans = append(plans, plan)
	}
	return plans
}
