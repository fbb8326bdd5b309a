package calendar

import (
	"strings"

	"github.com/trezcool/masomo-admin/core"
)

type (
	Term struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		StartDate core.Date `json:"startDate"`
		EndDate   core.Date `json:"endDate"`
	}

	AcademicYear struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		StartDate core.Date `json:"startDate"`
		EndDate   core.Date `json:"endDate"`
		IsActive  bool      `json:"isActive"`
		Terms     []Term    `json:"terms"`
	}

	// NewAcademicYear contains information needed to create an AcademicYear.
	NewAcademicYear struct {
		Name      string `json:"name" validate:"required,notblank,max=50"`
		StartDate string `json:"startDate" validate:"required,isodate"`
		EndDate   string `json:"endDate" validate:"required,isodate"`
	}

	// NewTerm contains information needed to create a Term within an academic year.
	NewTerm struct {
		Name      string `json:"name" validate:"required,notblank,max=50"`
		StartDate string `json:"startDate" validate:"required,isodate"`
		EndDate   string `json:"endDate" validate:"required,isodate"`
	}
)

// FindTerm looks a term up by name, case-insensitively.
func (ay AcademicYear) FindTerm(name string) (Term, bool) {
	name = core.CleanString(name, true /* lower */)
	for _, t := range ay.Terms {
		if strings.ToLower(t.Name) == name {
			return t, true
		}
	}
	return Term{}, false
}

// TermName returns the name of term id, or "" when id is not one of the year's terms.
func (ay AcademicYear) TermName(id string) string {
	for _, t := range ay.Terms {
		if t.ID == id {
			return t.Name
		}
	}
	return ""
}

// FindYear looks a year up by id or name.
func FindYear(years []AcademicYear, idOrName string) (AcademicYear, bool) {
	for _, y := range years {
		if y.ID == idOrName {
			return y, true
		}
	}
	name := core.CleanString(idOrName, true /* lower */)
	for _, y := range years {
		if strings.ToLower(y.Name) == name {
			return y, true
		}
	}
	return AcademicYear{}, false
}

// ActiveYear returns the first active year.
func ActiveYear(years []AcademicYear) (AcademicYear, bool) {
	for _, y := range years {
		if y.IsActive {
			return y, true
		}
	}
	return AcademicYear{}, false
}

// IsEmpty tells whether the term row was left blank.
func (nt NewTerm) IsEmpty() bool {
	return core.CleanString(nt.Name) == "" && nt.StartDate == "" && nt.EndDate == ""
}
