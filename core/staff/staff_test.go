package staff

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-admin/core"
	logsvc "github.com/trezcool/masomo-admin/services/logger"
)

type repoMock struct {
	staff []Staff
}

func (r *repoMock) QueryAllStaff(context.Context) ([]Staff, error) {
	return append([]Staff(nil), r.staff...), nil
}

func (r *repoMock) GetStaffByID(_ context.Context, id string) (Staff, error) {
	for _, s := range r.staff {
		if s.ID == id {
			return s, nil
		}
	}
	return Staff{}, ErrNotFound
}

func (r *repoMock) CreateStaff(_ context.Context, s Staff) (Staff, error) {
	s.ID = fmt.Sprintf("s%d", len(r.staff)+1)
	r.staff = append(r.staff, s)
	return s, nil
}

func newTestService(repo Repository) *Service {
	validate, translator := core.NewValidate()
	InitValidators(validate, translator)
	return NewService(repo, validate, logsvc.NewTestLogger())
}

func date(s string) core.Date {
	d, _ := core.ParseDate(s)
	return d
}

var testStaff = []Staff{
	{ID: "1", FirstName: "Amani", LastName: "Otieno", Email: "amani@school.ac", Phone: "+254700000001", Role: RoleTeacher, Department: "Sciences", HireDate: date("2019-01-07"), IsActive: true},
	{ID: "2", FirstName: "Baraka", LastName: "Mwangi", Email: "baraka@school.ac", Phone: "+254700000002", Role: RoleAccountant, Department: "Finance", HireDate: date("2021-05-03"), IsActive: true},
	{ID: "3", FirstName: "Chiku", LastName: "Otieno", Email: "chiku@school.ac", Phone: "+254700000003", Role: RoleTeacher, Department: "Languages", HireDate: date("2023-09-01"), IsActive: false},
	{ID: "4", FirstName: "Daudi", LastName: "Kamau", Email: "daudi@school.ac", Phone: "+254711111111", Role: RoleHeadTeacher, Department: "Administration", HireDate: date("2015-01-05"), IsActive: true},
}

func ids(staff []Staff) []string {
	res := make([]string, 0, len(staff))
	for _, s := range staff {
		res = append(res, s.ID)
	}
	return res
}

func TestFilter(t *testing.T) {
	active, inactive := true, false
	tests := []struct {
		name   string
		filter QueryFilter
		want   []string
	}{
		{name: "no filter", want: []string{"1", "2", "3", "4"}},
		{name: "search name", filter: QueryFilter{Search: "otieno"}, want: []string{"1", "3"}},
		{name: "search email", filter: QueryFilter{Search: "BARAKA@"}, want: []string{"2"}},
		{name: "search phone", filter: QueryFilter{Search: "711111"}, want: []string{"4"}},
		{name: "roles", filter: QueryFilter{Roles: []string{"teacher", "head_teacher"}}, want: []string{"1", "3", "4"}},
		{name: "department", filter: QueryFilter{Departments: []string{"finance"}}, want: []string{"2"}},
		{name: "active", filter: QueryFilter{IsActive: &active}, want: []string{"1", "2", "4"}},
		{name: "inactive", filter: QueryFilter{IsActive: &inactive}, want: []string{"3"}},
		{name: "hired range", filter: QueryFilter{HiredFrom: date("2019-01-07"), HiredTo: date("2021-12-31")}, want: []string{"1", "2"}},
		{name: "combined", filter: QueryFilter{Roles: []string{"teacher"}, IsActive: &active}, want: []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(testStaff, tt.filter)))
		})
	}
}

func TestSort(t *testing.T) {
	tests := []struct {
		ordering string
		want     []string
	}{
		{ordering: "last_name,first_name", want: []string{"4", "2", "1", "3"}},
		{ordering: "-hire_date", want: []string{"3", "2", "1", "4"}},
		{ordering: "role,-first_name", want: []string{"2", "4", "3", "1"}},
		{ordering: "unknown", want: []string{"1", "2", "3", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.ordering, func(t *testing.T) {
			staff := append([]Staff(nil), testStaff...)
			Sort(staff, core.ParseOrderings(tt.ordering))
			assert.Equal(t, tt.want, ids(staff))
		})
	}
}

func TestService_Query(t *testing.T) {
	svc := newTestService(&repoMock{staff: testStaff})
	res, err := svc.Query(context.Background(), QueryFilter{Search: "  otieno "}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(res))
}

func TestService_Create(t *testing.T) {
	NowFunc = func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) }
	defer func() { NowFunc = time.Now }()

	valid := NewStaff{
		FirstName: " Eve ",
		LastName:  "Njeri",
		Email:     "Eve@School.ac",
		Phone:     "+254 722 000 000",
		Role:      "Librarian",
		HireDate:  "2025-01-06",
	}

	tests := []struct {
		name      string
		mutate    func(ns *NewStaff)
		wantField string
	}{
		{name: "missing first name", mutate: func(ns *NewStaff) { ns.FirstName = " " }, wantField: "firstName"},
		{name: "bad email", mutate: func(ns *NewStaff) { ns.Email = "eve" }, wantField: "email"},
		{name: "bad phone", mutate: func(ns *NewStaff) { ns.Phone = "call me" }, wantField: "phone"},
		{name: "bad role", mutate: func(ns *NewStaff) { ns.Role = "janitor" }, wantField: "role"},
		{name: "bad employment", mutate: func(ns *NewStaff) { ns.EmploymentType = "seasonal" }, wantField: "employmentType"},
		{name: "bad hire date", mutate: func(ns *NewStaff) { ns.HireDate = "06/01/2025" }, wantField: "hireDate"},
		{name: "future hire date", mutate: func(ns *NewStaff) { ns.HireDate = "2025-07-01" }, wantField: "hireDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &repoMock{}
			ns := valid
			tt.mutate(&ns)
			_, err := newTestService(repo).Create(context.Background(), ns)
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.wantField, vErrs[0].Field())
			assert.Empty(t, repo.staff)
		})
	}

	t.Run("duplicate email", func(t *testing.T) {
		repo := &repoMock{staff: []Staff{{ID: "1", Email: "eve@school.ac"}}}
		_, err := newTestService(repo).Create(context.Background(), valid)
		vErr, ok := errors.Cause(err).(*core.ValidationError)
		require.True(t, ok)
		assert.Equal(t, "email", vErr.Fields[0].Field)
		assert.Len(t, repo.staff, 1)
	})

	t.Run("ok", func(t *testing.T) {
		repo := &repoMock{}
		s, err := newTestService(repo).Create(context.Background(), valid)
		require.NoError(t, err)
		assert.Equal(t, "s1", s.ID)
		assert.Equal(t, "Eve", s.FirstName)
		assert.Equal(t, "eve@school.ac", s.Email)
		assert.Equal(t, RoleLibrarian, s.Role)
		assert.Equal(t, EmploymentFullTime, s.EmploymentType)
		assert.Equal(t, "2025-01-06", s.HireDate.String())
		assert.True(t, s.IsActive)
		assert.Equal(t, NowFunc().UTC(), s.CreatedAt)
	})
}
