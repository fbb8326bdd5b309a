package backend

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core/calendar"
)

const (
	routeCreateAcademicYear = "/api/school/create-academic-year"
	routeCreateTerm         = "/api/school/create-term"

	queryAcademicYears = `query AcademicYears {
		academicYears { id name startDate endDate isActive terms { id name startDate endDate } }
	}`
)

type calendarRepository struct {
	client *Client
}

var _ calendar.Repository = (*calendarRepository)(nil)

func NewCalendarRepository(client *Client) calendar.Repository {
	return &calendarRepository{client: client}
}

func (repo *calendarRepository) QueryAcademicYears(ctx context.Context) ([]calendar.AcademicYear, error) {
	var data struct {
		AcademicYears []calendar.AcademicYear `json:"academicYears"`
	}
	if err := repo.client.Query(ctx, queryAcademicYears, nil, &data); err != nil {
		return nil, errors.Wrap(err, "querying academic years")
	}
	return data.AcademicYears, nil
}

func (repo *calendarRepository) CreateAcademicYear(ctx context.Context, ny calendar.NewAcademicYear) (calendar.AcademicYear, error) {
	var year calendar.AcademicYear
	if err := repo.client.Post(ctx, routeCreateAcademicYear, ny, &year); err != nil {
		return calendar.AcademicYear{}, err
	}
	if year.ID == "" {
		return calendar.AcademicYear{}, &HTTPError{StatusCode: 200, Message: "academic year was not returned by the backend"}
	}
	return year, nil
}

func (repo *calendarRepository) CreateTerm(ctx context.Context, yearID string, nt calendar.NewTerm) (calendar.Term, error) {
	body := struct {
		AcademicYearID string `json:"academicYearId"`
		calendar.NewTerm
	}{yearID, nt}

	var term calendar.Term
	if err := repo.client.Post(ctx, routeCreateTerm, body, &term); err != nil {
		return calendar.Term{}, err
	}
	return term, nil
}
