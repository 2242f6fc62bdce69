package catalog

import (
	"sort"
	"strings"

	"valvefinder/internal"
	"valvefinder/internal/util"
)

// Suggestion is a near miss offered when a scanned code resolves to nothing.
type Suggestion struct {
	ID    string
	Ref   string
	Name  string
	Score float64
}

const (
	suggestMinScore = 0.35
	suggestLimit    = 5
)

// Suggest ranks records against input by bigram similarity of the folded
// key and name, mixed with token overlap on the name. Only candidates scoring
// at least suggestMinScore are returned, best first; ties keep catalog order.
func Suggest(records []internal.ValveRecord, input string) []Suggestion {
	query := util.FoldName(input)
	if query == "" {
		return nil
	}
	queryTokens := strings.Fields(util.NormalizeSpaces(strings.NewReplacer("-", " ", "_", " ").Replace(query)))

	out := []Suggestion{}
	for _, r := range records {
		key := util.FoldName(r.Key())
		name := util.FoldName(r.Name)
		score := util.DiceCoefficient(query, key)
		if s := scoreName(query, name, queryTokens); s > score {
			score = s
		}
		if score < suggestMinScore {
			continue
		}
		out = append(out, Suggestion{ID: r.ID, Ref: r.Key(), Name: r.Name, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > suggestLimit {
		out = out[:suggestLimit]
	}
	return out
}

func scoreName(query, name string, queryTokens []string) float64 {
	dice := util.DiceCoefficient(query, name)
	nameTokens := strings.Fields(name)
	if len(queryTokens) == 0 || len(nameTokens) == 0 {
		return dice
	}

	set := map[string]struct{}{}
	for _, t := range nameTokens {
		set[t] = struct{}{}
	}
	overlap := 0
	for _, t := range queryTokens {
		if _, ok := set[t]; ok {
			overlap++
		}
	}
	tokenScore := float64(overlap) / float64(len(queryTokens))
	return 0.65*dice + 0.35*tokenScore
}
