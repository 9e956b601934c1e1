package tool

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	NameRebalancePortfolio   = "rebalance_portfolio"
	NameFindFeeOptimizations = "find_fee_optimizations"
	NameAnalyzePerformance   = "analyze_performance"
)

// Entry is one line of the static catalog.
type Entry struct {
	Name  string
	Build func() (Tool, error)
}

// Builtins is the default catalog.
func Builtins(now func() time.Time) []Entry {
	return []Entry{
		{Name: NameRebalancePortfolio, Build: func() (Tool, error) { return NewRebalancePortfolio(), nil }},
		{Name: NameFindFeeOptimizations, Build: func() (Tool, error) { return NewFindFeeOptimizations(), nil }},
		{Name: NameAnalyzePerformance, Build: func() (Tool, error) { return NewAnalyzePerformance(now), nil }},
	}
}

// NewCatalog builds and registers every entry. An entry that fails to build
// is logged and left out; the others stay usable. A duplicate name aborts.
func NewCatalog(entries ...Entry) (*Registry, error) {
	reg := NewRegistry()
	for _, entry := range entries {
		t, err := buildEntry(entry)
		if err != nil {
			log.Warn().Err(err).Str("tool", entry.Name).Msg("tool unavailable, skipping")
			reg.markSkipped(entry.Name, err)
			continue
		}
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func buildEntry(entry Entry) (t Tool, err error) {
	if entry.Build == nil {
		return nil, fmt.Errorf("tool %s has no builder", entry.Name)
	}
	defer func() {
		if rec := recover(); rec != nil {
			t, err = nil, fmt.Errorf("tool %s builder panicked: %v", entry.Name, rec)
		}
	}()
	t, err = entry.Build()
	if err == nil && t == nil {
		err = fmt.Errorf("tool %s builder returned nil", entry.Name)
	}
	return t, err
}
