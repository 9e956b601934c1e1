package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/tanpawarit/portfolio-agent/agent/portfolio"
)

// Savings below 5 basis points are not worth a switch.
const feeThresholdBps = 5

// feeAliases treats these classes as the same exposure when looking for
// cheaper funds.
var feeAliases = map[string]string{
	"equity - developed markets": "equity - global",
}

type FindFeeOptimizations struct {
	info *schema.ToolInfo
}

var _ Tool = (*FindFeeOptimizations)(nil)

type feeArgs struct {
	Holdings     []portfolio.Holding `mapstructure:"holdings"`
	FundMetadata []portfolio.Fund    `mapstructure:"fund_metadata"`
}

func NewFindFeeOptimizations() *FindFeeOptimizations {
	return &FindFeeOptimizations{
		info: &schema.ToolInfo{
			Name:        NameFindFeeOptimizations,
			Desc:        "Identify cheaper funds or share classes with equivalent exposure",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
	}
}

func (t *FindFeeOptimizations) Info() *schema.ToolInfo { return t.info }

func (t *FindFeeOptimizations) Params() []string { return []string{"holdings", "fund_metadata"} }

func (t *FindFeeOptimizations) Required() []string { return t.Params() }

func (t *FindFeeOptimizations) Run(ctx context.Context, in Input) (Result, error) {
	var args feeArgs
	if err := decodeInput(in, &args); err != nil {
		return nil, err
	}

	byISIN := portfolio.FundsByISIN(args.FundMetadata)

	suggestions := []string{}
	var total float64
	for _, h := range args.Holdings {
		cur, ok := byISIN[h.ISIN]
		if !ok {
			continue
		}
		class := feeClass(cur.AssetClass)

		var cheaper *portfolio.Fund
		for i := range args.FundMetadata {
			f := &args.FundMetadata[i]
			if strings.ToLower(strings.TrimSpace(f.AssetClass)) != class || f.OngoingCharge >= cur.OngoingCharge {
				continue
			}
			if cheaper == nil || f.OngoingCharge < cheaper.OngoingCharge {
				cheaper = f
			}
		}
		if cheaper == nil {
			continue
		}

		deltaFee := cur.OngoingCharge - cheaper.OngoingCharge
		if deltaFee*100 < feeThresholdBps {
			continue
		}
		saving := round2(h.Value * deltaFee / 100)
		total += saving
		suggestions = append(suggestions, fmt.Sprintf(
			"- Switch **%s** (%.2f%%) → **%s** (%.2f%%) | save ≈ £%.2f/yr",
			cur.Name, cur.OngoingCharge, cheaper.Name, cheaper.OngoingCharge, saving,
		))
	}
	total = round2(total)

	summary := "No fee optimizations found."
	if len(suggestions) > 0 {
		summary = fmt.Sprintf("Found %d cheaper alternatives worth ≈ £%.2f in annual savings.", len(suggestions), total)
	}

	return Ok{
		Summary: summary,
		Payload: map[string]any{
			"suggestions":             suggestions,
			"total_estimated_savings": total,
		},
	}, nil
}

func feeClass(assetClass string) string {
	class := strings.ToLower(strings.TrimSpace(assetClass))
	if alias, ok := feeAliases[class]; ok {
		return alias
	}
	return class
}
