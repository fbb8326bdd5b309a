package memdb

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
	"github.com/trezcool/masomo-admin/core/fee"
	"github.com/trezcool/masomo-admin/core/staff"
)

// Seed fills db with a small demo school: one academic year split in three terms,
// a few fee buckets, primary and secondary grade levels and some staff.
func Seed(ctx context.Context, db *DB) error {
	cal := NewCalendarRepository(db)
	year, err := cal.CreateAcademicYear(ctx, calendar.NewAcademicYear{Name: "2025-2026", StartDate: "2025-09-01", EndDate: "2026-08-31"})
	if err != nil {
		return errors.Wrap(err, "seeding academic year")
	}
	tmpl, _ := calendar.FindTemplate("3")
	for _, nt := range tmpl.Apply(year.StartDate, year.EndDate) {
		if _, err := cal.CreateTerm(ctx, year.ID, nt); err != nil {
			return errors.Wrapf(err, "seeding %s", nt.Name)
		}
	}

	fees := NewFeeRepository(db)
	for _, nb := range []fee.NewFeeBucket{
		{Name: "Tuition", Description: "Teaching and learning"},
		{Name: "Transport", Description: "School bus"},
		{Name: "Meals", Description: "Lunch programme"},
		{Name: "Activities", Description: "Clubs and trips"},
	} {
		if _, err := fees.CreateFeeBucket(ctx, nb); err != nil {
			return errors.Wrapf(err, "seeding %s", nb.Name)
		}
	}

	grades := []fee.GradeLevel{
		{ID: "grade-1", Name: "Grade 1", SchoolType: "primary"},
		{ID: "grade-2", Name: "Grade 2", SchoolType: "primary"},
		{ID: "grade-3", Name: "Grade 3", SchoolType: "primary"},
		{ID: "form-1", Name: "Form 1", SchoolType: "secondary"},
		{ID: "form-2", Name: "Form 2", SchoolType: "secondary"},
	}
	db.AddGradeLevels(grades...)

	people := NewStaffRepository(db)
	created := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)
	for _, s := range []staff.Staff{
		{FirstName: "Amani", LastName: "Otieno", Email: "amani.otieno@masomo.ac", Phone: "+254711111111", Role: staff.RoleHeadTeacher, Department: "Administration", HireDate: core.NewDate(2015, time.January, 5)},
		{FirstName: "Wanjiru", LastName: "Mwangi", Email: "wanjiru.mwangi@masomo.ac", Role: staff.RoleTeacher, Department: "Sciences", Qualification: "BEd Science", HireDate: core.NewDate(2019, time.May, 2)},
		{FirstName: "Baraka", LastName: "Kamau", Email: "baraka.kamau@masomo.ac", Role: staff.RoleAccountant, Department: "Finance", HireDate: core.NewDate(2021, time.September, 1)},
	} {
		s.EmploymentType = staff.EmploymentFullTime
		s.IsActive = true
		s.CreatedAt = created
		if _, err := people.CreateStaff(ctx, s); err != nil {
			return errors.Wrapf(err, "seeding %s", s.FullName())
		}
	}
	return nil
}
