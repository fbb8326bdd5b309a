package fee

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
)

// suggestion cutoff for "did you mean" hints
const minSuggestionRatio = .6

// ResolveTermIDs maps every term structure's name to a term id of year.
// Unresolved names are reported as field errors anchored on termStructures[i].term.
func ResolveTermIDs(year calendar.AcademicYear, termStructures []TermStructure) ([]string, error) {
	var (
		ids  = make([]string, 0, len(termStructures))
		seen = make(map[string]bool)
		errs core.FieldErrors
	)
	for i, ts := range termStructures {
		field := fmt.Sprintf("termStructures[%d].term", i)
		name := core.CleanString(ts.Term)
		if name == "" {
			errs.Add(field, "term is required")
			continue
		}
		term, ok := year.FindTerm(name)
		if !ok {
			msg := fmt.Sprintf("term %q does not exist in %s", name, year.Name)
			if s := SuggestTerm(year, name); s != "" {
				msg += fmt.Sprintf(", did you mean %q?", s)
			}
			errs.Add(field, msg)
			continue
		}
		if !seen[term.ID] {
			seen[term.ID] = true
			ids = append(ids, term.ID)
		}
	}
	if err := errs.Err("unresolved terms"); err != nil {
		return nil, err
	}
	return ids, nil
}

// SuggestTerm returns the year's term name closest to name, or "" when none is close enough.
func SuggestTerm(year calendar.AcademicYear, name string) string {
	var (
		best      string
		bestRatio float64
	)
	chars := strings.Split(strings.ToLower(name), "")
	for _, t := range year.Terms {
		ratio := difflib.NewMatcher(chars, strings.Split(strings.ToLower(t.Name), "")).Ratio()
		if ratio >= minSuggestionRatio && ratio > bestRatio {
			best, bestRatio = t.Name, ratio
		}
	}
	return best
}
