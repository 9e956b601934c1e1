package tool

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tanpawarit/portfolio-agent/agent/portfolio"
)

const (
	BucketEquities = "equities"
	BucketBonds    = "bonds"
	BucketCash     = "cash"
	BucketOther    = "other"
)

var assetClassBuckets = map[string]string{
	"equity - us":                BucketEquities,
	"equity - global":            BucketEquities,
	"equity - developed markets": BucketEquities,
	"bond - global aggregate":    BucketBonds,
	"bond - short term":          BucketBonds,
	"cash":                       BucketCash,
}

var bucketOrder = map[string]int{
	BucketEquities: 0,
	BucketBonds:    1,
	BucketCash:     2,
	BucketOther:    3,
}

// NoAllocationData is reported for a portfolio whose total value is zero.
const NoAllocationData = "No allocation data: the portfolio has no holdings or cash."

// BucketOf maps a fund's raw asset class onto an allocation bucket.
func BucketOf(assetClass string) string {
	if b, ok := assetClassBuckets[strings.ToLower(strings.TrimSpace(assetClass))]; ok {
		return b
	}
	return BucketOther
}

// Allocation is the value held in each bucket. Cash balances and holdings
// in cash-like funds both count towards the cash bucket.
type Allocation struct {
	Values map[string]float64
	Total  float64
	Cash   float64
}

func Allocate(holdings []portfolio.Holding, cash []portfolio.CashBalance, funds []portfolio.Fund) Allocation {
	byISIN := portfolio.FundsByISIN(funds)

	a := Allocation{Values: make(map[string]float64)}
	for _, h := range holdings {
		class := BucketOther
		if f, ok := byISIN[h.ISIN]; ok {
			class = BucketOf(f.AssetClass)
		}
		a.Values[class] += h.Value
		a.Total += h.Value
	}
	a.Cash = portfolio.TotalCash(cash)
	a.Total += a.Cash
	a.Values[BucketCash] += a.Cash
	return a
}

// Percentages reports each bucket as a share of the total, rounded to two
// decimals. ok is false when the total is zero.
func (a Allocation) Percentages() (map[string]float64, bool) {
	if a.Total == 0 {
		return nil, false
	}
	out := make(map[string]float64, len(a.Values))
	for bucket, v := range a.Values {
		out[bucket] = round2(v / a.Total * 100)
	}
	return out, true
}

// NormalizeTargets lower-cases asset names so "Equities" and "equities" agree.
func NormalizeTargets(targets map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(targets))
	for k, v := range targets {
		out[strings.ToLower(strings.TrimSpace(k))] += v
	}
	return out
}

// AllocationSummary renders the before/after block shown to users.
func AllocationSummary(current, target map[string]float64) string {
	var b strings.Builder
	b.WriteString("\n📊 Current Allocation:\n")
	writeAllocation(&b, current)
	b.WriteString("\n\n🎯 Target Allocation:\n")
	writeAllocation(&b, target)
	return b.String()
}

func writeAllocation(b *strings.Builder, alloc map[string]float64) {
	for i, name := range sortedAssets(alloc) {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(capitalize(name))
		b.WriteString(": ")
		b.WriteString(strconv.FormatFloat(alloc[name], 'f', -1, 64))
		b.WriteString("%")
	}
}

// sortedAssets orders the union of keys: known buckets first, then the rest
// alphabetically.
func sortedAssets(sets ...map[string]float64) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, set := range sets {
		for name := range set {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iok := bucketOrder[names[i]]
		oj, jok := bucketOrder[names[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})
	return names
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
