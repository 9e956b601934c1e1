package tool

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/tanpawarit/portfolio-agent/agent/portfolio"
)

// Deltas smaller than this many pounds are left alone.
const minMovement = 1.0

type RebalancePortfolio struct {
	info *schema.ToolInfo
}

var _ Tool = (*RebalancePortfolio)(nil)

type rebalanceArgs struct {
	Holdings          []portfolio.Holding     `mapstructure:"holdings"`
	CashAccounts      []portfolio.CashBalance `mapstructure:"cash_accounts"`
	FundMetadata      []portfolio.Fund        `mapstructure:"fund_metadata"`
	TargetAllocations map[string]float64      `mapstructure:"target_allocations"`
}

func NewRebalancePortfolio() *RebalancePortfolio {
	return &RebalancePortfolio{
		info: &schema.ToolInfo{
			Name: NameRebalancePortfolio,
			Desc: "Rebalance holdings toward new target allocations",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"target_allocations": {
					Type:     schema.Object,
					Desc:     "Dict of asset class → % target",
					Required: true,
				},
			}),
		},
	}
}

func (t *RebalancePortfolio) Info() *schema.ToolInfo { return t.info }

func (t *RebalancePortfolio) Params() []string {
	return []string{"holdings", "cash_accounts", "fund_metadata", "target_allocations"}
}

func (t *RebalancePortfolio) Required() []string { return t.Params() }

func (t *RebalancePortfolio) Run(ctx context.Context, in Input) (Result, error) {
	var args rebalanceArgs
	if err := decodeInput(in, &args); err != nil {
		return nil, err
	}
	targets := NormalizeTargets(args.TargetAllocations)
	if len(targets) == 0 {
		return NewMissingArgs([]string{"target_allocations"}), nil
	}

	alloc := Allocate(args.Holdings, args.CashAccounts, args.FundMetadata)
	current, ok := alloc.Percentages()
	if !ok {
		return Ok{
			Summary: NoAllocationData,
			Payload: map[string]any{
				"current_allocation": map[string]float64{},
				"target_allocations": targets,
				"movements":          []string{},
				"allocation_summary": NoAllocationData,
			},
		}, nil
	}

	var sells, reallocs, invests []string
	availableCash := alloc.Cash

	for _, asset := range sortedAssets(current, targets) {
		delta := round2(alloc.Total * (targets[asset] - current[asset]) / 100)
		if math.Abs(delta) < minMovement {
			continue
		}

		if delta < 0 {
			sells = append(sells, fmt.Sprintf("- Reduce exposure to %s by £%.2f.", asset, -delta))
			continue
		}
		// Proceeds of sales already land in cash.
		if asset == BucketCash {
			continue
		}

		fromCash := math.Min(delta, availableCash)
		if fromCash > 0 {
			invests = append(invests, fmt.Sprintf("- Invest £%.2f into %s (%s)", fromCash, fundNameFor(asset, args.FundMetadata), asset))
			availableCash -= fromCash
		}
		if remaining := round2(delta - fromCash); remaining > 0 {
			reallocs = append(reallocs, fmt.Sprintf("- Reallocate £%.2f to %s.", remaining, asset))
		}
	}

	movements := make([]string, 0, 3)
	if len(sells) > 0 {
		movements = append(movements, "🔻 **Sell / Reduce Exposure:**\n"+strings.Join(sells, "\n"))
	}
	if len(reallocs) > 0 {
		movements = append(movements, "🔄 **Reallocate from Surplus Holdings:**\n"+strings.Join(reallocs, "\n"))
	}
	if len(invests) > 0 {
		movements = append(movements, "💰 **Invest Available Cash:**\n"+strings.Join(invests, "\n"))
	}

	summary := AllocationSummary(current, targets)
	return Ok{
		Summary: summary,
		Payload: map[string]any{
			"current_allocation": current,
			"target_allocations": targets,
			"movements":          movements,
			"allocation_summary": summary,
		},
	}, nil
}

// fundNameFor picks the fund flagged as the default buy for a bucket.
func fundNameFor(bucket string, funds []portfolio.Fund) string {
	for _, f := range funds {
		if f.Bucket == bucket {
			return f.Name
		}
	}
	return bucket + " fund"
}
