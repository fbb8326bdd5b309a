package memdb

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
)

var ErrYearNotFound = errors.New("academic year not found")

type calendarRepository struct {
	db *calendarTable
}

var _ calendar.Repository = (*calendarRepository)(nil)

func NewCalendarRepository(db *DB) calendar.Repository {
	return &calendarRepository{db: db.calendar}
}

func copyYear(y *calendar.AcademicYear) calendar.AcademicYear {
	cp := *y
	cp.Terms = append([]calendar.Term{}, y.Terms...)
	return cp
}

func (repo *calendarRepository) QueryAcademicYears(_ context.Context) ([]calendar.AcademicYear, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	years := make([]calendar.AcademicYear, 0, len(repo.db.years))
	for _, y := range repo.db.years {
		years = append(years, copyYear(y))
	}
	return years, nil
}

// CreateAcademicYear stores the year; the first year stored becomes the active one.
func (repo *calendarRepository) CreateAcademicYear(_ context.Context, ny calendar.NewAcademicYear) (calendar.AcademicYear, error) {
	start, err := core.ParseDate(ny.StartDate)
	if err != nil {
		return calendar.AcademicYear{}, err
	}
	end, err := core.ParseDate(ny.EndDate)
	if err != nil {
		return calendar.AcademicYear{}, err
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, y := range repo.db.years {
		if y.Name == ny.Name {
			return calendar.AcademicYear{}, errors.Errorf("academic year %s already exists", ny.Name)
		}
	}
	year := &calendar.AcademicYear{
		ID:        newID(),
		Name:      ny.Name,
		StartDate: start,
		EndDate:   end,
		IsActive:  len(repo.db.years) == 0,
		Terms:     []calendar.Term{},
	}
	repo.db.years = append(repo.db.years, year)
	return copyYear(year), nil
}

// CreateTerm rejects terms overlapping an existing term of the same year.
func (repo *calendarRepository) CreateTerm(_ context.Context, yearID string, nt calendar.NewTerm) (calendar.Term, error) {
	start, err := core.ParseDate(nt.StartDate)
	if err != nil {
		return calendar.Term{}, err
	}
	end, err := core.ParseDate(nt.EndDate)
	if err != nil {
		return calendar.Term{}, err
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var year *calendar.AcademicYear
	for _, y := range repo.db.years {
		if y.ID == yearID {
			year = y
			break
		}
	}
	if year == nil {
		return calendar.Term{}, ErrYearNotFound
	}
	for _, t := range year.Terms {
		if t.Name == nt.Name {
			return calendar.Term{}, errors.Errorf("%s already exists in %s", nt.Name, year.Name)
		}
		if !start.After(t.EndDate.Time) && !end.Before(t.StartDate.Time) {
			return calendar.Term{}, errors.Errorf("term dates overlap with %s", t.Name)
		}
	}

	term := calendar.Term{ID: newID(), Name: nt.Name, StartDate: start, EndDate: end}
	year.Terms = append(year.Terms, term)
	return term, nil
}
