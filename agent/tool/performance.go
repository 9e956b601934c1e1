package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/tanpawarit/portfolio-agent/agent/portfolio"
)

type period struct {
	label string
	since func(now time.Time) time.Time
}

var performancePeriods = []period{
	{"1M", func(now time.Time) time.Time { return now.AddDate(0, 0, -30) }},
	{"3M", func(now time.Time) time.Time { return now.AddDate(0, 0, -90) }},
	{"YTD", func(now time.Time) time.Time { return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC) }},
	{"1Y", func(now time.Time) time.Time { return now.AddDate(0, 0, -365) }},
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	time.RFC3339Nano,
	"2006-01-02",
}

type AnalyzePerformance struct {
	info *schema.ToolInfo
	now  func() time.Time
}

var _ Tool = (*AnalyzePerformance)(nil)

type performanceArgs struct {
	Transactions []portfolio.Transaction `mapstructure:"transactions"`
	LatestPrices map[string]float64      `mapstructure:"latest_prices"`
	FundMetadata []portfolio.Fund        `mapstructure:"fund_metadata"`
}

func NewAnalyzePerformance(now func() time.Time) *AnalyzePerformance {
	if now == nil {
		now = time.Now
	}
	return &AnalyzePerformance{
		info: &schema.ToolInfo{
			Name:        NameAnalyzePerformance,
			Desc:        "Return time-period performance metrics and contribution by asset class",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		now: now,
	}
}

func (t *AnalyzePerformance) Info() *schema.ToolInfo { return t.info }

func (t *AnalyzePerformance) Params() []string {
	return []string{"transactions", "latest_prices", "fund_metadata"}
}

func (t *AnalyzePerformance) Required() []string { return t.Params() }

func (t *AnalyzePerformance) Run(ctx context.Context, in Input) (Result, error) {
	var args performanceArgs
	if err := decodeInput(in, &args); err != nil {
		return nil, err
	}

	now := t.now().UTC()
	returns := make(map[string]float64, len(performancePeriods))
	parts := make([]string, 0, len(performancePeriods))
	for _, p := range performancePeriods {
		r := periodReturn(args.Transactions, args.LatestPrices, p.since(now))
		returns[p.label] = r
		parts = append(parts, fmt.Sprintf("%s: %+.2f%%", p.label, r))
	}

	classOf := make(map[string]string, len(args.FundMetadata))
	for _, f := range args.FundMetadata {
		class := f.AssetClass
		if class == "" {
			class = BucketOther
		}
		classOf[f.ISIN] = class
	}
	contribution := make(map[string]float64)
	for _, tx := range args.Transactions {
		class, ok := classOf[tx.ISIN]
		if !ok {
			class = BucketOther
		}
		contribution[class] += (args.LatestPrices[tx.ISIN] - tx.Price) * tx.Quantity
	}
	for k, v := range contribution {
		contribution[k] = round2(v)
	}

	return Ok{
		Summary: "Performance snapshot: " + strings.Join(parts, ", "),
		Payload: map[string]any{
			"period_returns_%":           returns,
			"asset_class_contribution_£": contribution,
		},
	}, nil
}

// periodReturn compares the cost of positions bought before since with
// their value at latest prices, as a percentage.
func periodReturn(txs []portfolio.Transaction, prices map[string]float64, since time.Time) float64 {
	var costBasis, endValue float64
	for _, tx := range txs {
		ts, ok := parseTimestamp(tx.Timestamp)
		if !ok || !ts.Before(since) {
			continue
		}
		costBasis += tx.Quantity * tx.Price
		endValue += tx.Quantity * prices[tx.ISIN]
	}
	if costBasis == 0 {
		return 0
	}
	return round2((endValue/costBasis - 1) * 100)
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
