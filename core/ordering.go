package core

import "strings"

// Ordering is one "field direction" pair of a list ordering, eg. `-hire_date`.
type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrderings parses a comma separated list of fields, a leading "-" meaning descending.
func ParseOrderings(val string) []Ordering {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	var orderings []Ordering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, Ordering{Field: field, Ascending: !descending})
	}
	return orderings
}
