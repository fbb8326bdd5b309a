package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
)

var (
	ErrInvalidYearName = errors.New(`academic year name must look like "2025-2026"`)
	ErrUnknownTemplate = errors.New("unknown term template")

	yearNameRegex = regexp.MustCompile(`^\s*(\d{4})\s*[-/]\s*(\d{4})\s*$`)
)

// school years run from September 1st to August 31st
const (
	yearStartMonth = time.September
	yearStartDay   = 1
)

// DefaultYearDates derives the dates of a "YYYY-YYYY" academic year, eg. 2025-2026 runs from 2025-09-01 to 2026-08-31.
func DefaultYearDates(name string) (start, end core.Date, err error) {
	m := yearNameRegex.FindStringSubmatch(name)
	if m == nil {
		return core.Date{}, core.Date{}, ErrInvalidYearName
	}
	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	if second != first+1 {
		return core.Date{}, core.Date{}, ErrInvalidYearName
	}
	start = core.NewDate(first, yearStartMonth, yearStartDay)
	end = core.NewDate(second, yearStartMonth, yearStartDay).AddDays(-1)
	return start, end, nil
}

type TermTemplate struct {
	Name  string `json:"name"`
	Terms int    `json:"terms"`
}

var TermTemplates = []TermTemplate{
	{Name: "2 Terms", Terms: 2},
	{Name: "3 Terms", Terms: 3},
	{Name: "4 Terms", Terms: 4},
}

// FindTemplate looks a template up by name ("3 Terms") or term count ("3").
func FindTemplate(nameOrCount string) (TermTemplate, error) {
	for _, tmpl := range TermTemplates {
		if tmpl.Name == nameOrCount || strconv.Itoa(tmpl.Terms) == nameOrCount {
			return tmpl, nil
		}
	}
	return TermTemplate{}, errors.Wrapf(ErrUnknownTemplate, "%q", nameOrCount)
}

// Apply splits [start, end] into contiguous spans of (almost) equal length named "Term N".
// The last span absorbs the remainder and ends on end.
func (tmpl TermTemplate) Apply(start, end core.Date) []NewTerm {
	days := start.DaysUntil(end) + 1
	if tmpl.Terms <= 0 || days < tmpl.Terms {
		return nil
	}
	span := days / tmpl.Terms

	terms := make([]NewTerm, 0, tmpl.Terms)
	termStart := start
	for i := 1; i <= tmpl.Terms; i++ {
		termEnd := termStart.AddDays(span - 1)
		if i == tmpl.Terms {
			termEnd = end
		}
		terms = append(terms, NewTerm{
			Name:      fmt.Sprintf("Term %d", i),
			StartDate: termStart.String(),
			EndDate:   termEnd.String(),
		})
		termStart = termEnd.AddDays(1)
	}
	return terms
}

// FillDefaults derives the missing dates of ny from its name, and splits the year with tmplName when terms is empty.
// Values that cannot be derived are left as they are, for validation to report.
func FillDefaults(ny NewAcademicYear, tmplName string, terms []NewTerm) (NewAcademicYear, []NewTerm, error) {
	if ny.StartDate == "" && ny.EndDate == "" {
		if start, end, err := DefaultYearDates(ny.Name); err == nil {
			ny.StartDate, ny.EndDate = start.String(), end.String()
		}
	}
	if len(terms) > 0 || tmplName == "" {
		return ny, terms, nil
	}

	tmpl, err := FindTemplate(tmplName)
	if err != nil {
		return ny, nil, err
	}
	start, err1 := core.ParseDate(ny.StartDate)
	end, err2 := core.ParseDate(ny.EndDate)
	if err1 == nil && err2 == nil && !start.IsZero() && !end.IsZero() {
		terms = tmpl.Apply(start, end)
	}
	return ny, terms, nil
}
