package staff

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound    = errors.New("staff member not found")
	ErrEmailExists = errors.New("a staff member with this email already exists")
)

type (
	Repository interface {
		QueryAllStaff(ctx context.Context) ([]Staff, error)
		GetStaffByID(ctx context.Context, id string) (Staff, error)
		CreateStaff(ctx context.Context, s Staff) (Staff, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(repo Repository, validate *validator.Validate, logger core.Logger) *Service {
	return &Service{repo: repo, validate: validate, logger: logger}
}

func (ns *NewStaff) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Role = core.CleanString(ns.Role, true /* lower */)
	ns.Department = core.CleanString(ns.Department)
	ns.EmploymentType = core.CleanString(ns.EmploymentType, true /* lower */)
	ns.Qualification = core.CleanString(ns.Qualification)
	ns.HireDate = core.CleanString(ns.HireDate)
	return validate.Struct(ns)
}

func (svc *Service) checkUniqueness(ctx context.Context, email string) error {
	all, err := svc.repo.QueryAllStaff(ctx)
	if err != nil {
		return errors.Wrap(err, "querying staff")
	}
	for _, s := range all {
		if strings.EqualFold(s.Email, email) {
			return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStaff) (Staff, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Staff{}, err
	}
	if err := svc.checkUniqueness(ctx, ns.Email); err != nil {
		return Staff{}, err
	}

	hired, _ := core.ParseDate(ns.HireDate)
	employment := ns.EmploymentType
	if employment == "" {
		employment = EmploymentFullTime
	}
	s, err := svc.repo.CreateStaff(ctx, Staff{
		FirstName:      ns.FirstName,
		LastName:       ns.LastName,
		Email:          ns.Email,
		Phone:          ns.Phone,
		Role:           ns.Role,
		Department:     ns.Department,
		EmploymentType: employment,
		Qualification:  ns.Qualification,
		HireDate:       hired,
		IsActive:       true,
		CreatedAt:      NowFunc().UTC(),
	})
	if err != nil {
		return Staff{}, errors.Wrap(err, "creating staff")
	}
	svc.logger.Info("staff member created", map[string]interface{}{"id": s.ID, "email": s.Email})
	return s, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Staff, error) {
	return svc.repo.GetStaffByID(ctx, id)
}

// Query lists the staff members matching filter, sorted by orderings (last name, first name by default).
func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.Ordering) ([]Staff, error) {
	all, err := svc.repo.QueryAllStaff(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying staff")
	}
	filter.Clean()
	res := Filter(all, filter)
	if len(orderings) == 0 {
		orderings = []core.Ordering{{Field: "last_name", Ascending: true}, {Field: "first_name", Ascending: true}}
	}
	Sort(res, orderings)
	return res, nil
}

// Filter returns the members of all matching filter.
func Filter(all []Staff, filter QueryFilter) []Staff {
	search := strings.ToLower(filter.Search)
	res := make([]Staff, 0, len(all))
	for _, s := range all {
		if search != "" &&
			!strings.Contains(strings.ToLower(s.FullName()), search) &&
			!strings.Contains(strings.ToLower(s.Email), search) &&
			!strings.Contains(s.Phone, search) {
			continue
		}
		if len(filter.Roles) > 0 && !containsFold(filter.Roles, s.Role) {
			continue
		}
		if len(filter.Departments) > 0 && !containsFold(filter.Departments, s.Department) {
			continue
		}
		if filter.IsActive != nil && s.IsActive != *filter.IsActive {
			continue
		}
		if !filter.HiredFrom.IsZero() && s.HireDate.Before(filter.HiredFrom.Time) {
			continue
		}
		if !filter.HiredTo.IsZero() && s.HireDate.After(filter.HiredTo.Time) {
			continue
		}
		res = append(res, s)
	}
	return res
}

// Sort sorts staff in place, stable on ties. Unknown fields are ignored.
func Sort(staff []Staff, orderings []core.Ordering) {
	sort.SliceStable(staff, func(i, j int) bool {
		for _, ord := range orderings {
			c := compare(staff[i], staff[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compare(a, b Staff, field string) int {
	switch field {
	case "first_name":
		return strings.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName))
	case "last_name":
		return strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName))
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "role":
		return strings.Compare(a.Role, b.Role)
	case "department":
		return strings.Compare(strings.ToLower(a.Department), strings.ToLower(b.Department))
	case "hire_date":
		return compareTime(a.HireDate.Time, b.HireDate.Time)
	case "created_at":
		return compareTime(a.CreatedAt, b.CreatedAt)
	case "is_active":
		switch {
		case a.IsActive == b.IsActive:
			return 0
		case !a.IsActive:
			return -1
		default:
			return 1
		}
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
