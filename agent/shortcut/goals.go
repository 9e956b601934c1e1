package shortcut

import "strings"

// Goal is a savings objective recognised in free text.
type Goal struct {
	Name       string
	Allocation map[string]float64
}

var (
	goalHouse = Goal{
		Name:       "saving_for_house",
		Allocation: map[string]float64{"equities": 20, "bonds": 40, "cash": 40},
	}
	goalRetirement = Goal{
		Name:       "retirement",
		Allocation: map[string]float64{"equities": 60, "bonds": 30, "cash": 10},
	}
	goalShortTerm = Goal{
		Name:       "short_term_savings",
		Allocation: map[string]float64{"equities": 10, "bonds": 40, "cash": 50},
	}
)

// goalRules are checked in order; the first match wins.
var goalRules = []struct {
	phrases []string
	goal    Goal
}{
	{[]string{"house"}, goalHouse},
	{[]string{"retire"}, goalRetirement},
	{[]string{"vacation", "travel", "short term"}, goalShortTerm},
}

// MatchGoal looks for a goal phrase anywhere in text, ignoring case.
func MatchGoal(text string) (Goal, bool) {
	lower := strings.ToLower(text)
	for _, rule := range goalRules {
		for _, p := range rule.phrases {
			if strings.Contains(lower, p) {
				return cloneGoal(rule.goal), true
			}
		}
	}
	return Goal{}, false
}

func cloneGoal(g Goal) Goal {
	alloc := make(map[string]float64, len(g.Allocation))
	for k, v := range g.Allocation {
		alloc[k] = v
	}
	return Goal{Name: g.Name, Allocation: alloc}
}
