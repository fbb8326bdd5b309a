package staff

import (
	"time"

	"github.com/trezcool/masomo-admin/core"
)

// Roles
const (
	RoleTeacher       = "teacher"
	RoleHeadTeacher   = "head_teacher"
	RoleAdministrator = "administrator"
	RoleAccountant    = "accountant"
	RoleLibrarian     = "librarian"
	RoleCounselor     = "counselor"
	RoleSupport       = "support"
)

// Employment types
const (
	EmploymentFullTime = "full_time"
	EmploymentPartTime = "part_time"
	EmploymentContract = "contract"
)

var (
	AllRoles = []string{
		RoleTeacher, RoleHeadTeacher, RoleAdministrator, RoleAccountant, RoleLibrarian, RoleCounselor, RoleSupport,
	}

	Roles = []Role{
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Head Teacher", Value: RoleHeadTeacher},
		{Name: "Administrator", Value: RoleAdministrator},
		{Name: "Accountant", Value: RoleAccountant},
		{Name: "Librarian", Value: RoleLibrarian},
		{Name: "Counselor", Value: RoleCounselor},
		{Name: "Support Staff", Value: RoleSupport},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Staff struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Role           string    `json:"role"`
	Department     string    `json:"department"`
	EmploymentType string    `json:"employmentType"`
	Qualification  string    `json:"qualification"`
	HireDate       core.Date `json:"hireDate"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"` // UTC
}

func (s Staff) FullName() string {
	return s.FirstName + " " + s.LastName
}

// NewStaff contains information needed to create a new Staff member.
type NewStaff struct {
	FirstName      string `json:"firstName" validate:"required,notblank,max=100"`
	LastName       string `json:"lastName" validate:"required,notblank,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"omitempty,phone"`
	Role           string `json:"role" validate:"required,staffrole"`
	Department     string `json:"department" validate:"max=100"`
	EmploymentType string `json:"employmentType" validate:"omitempty,oneof=full_time part_time contract"`
	Qualification  string `json:"qualification" validate:"max=200"`
	HireDate       string `json:"hireDate" validate:"required,isodate"`
}

// QueryFilter applies AND between its set fields.
// Search does a case-insensitive match on the full name, email or phone.
type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	Departments []string  `query:"department"`
	IsActive    *bool     `query:"is_active"`
	HiredFrom   core.Date `query:"hired_from"`
	HiredTo     core.Date `query:"hired_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && len(qf.Roles) == 0 && len(qf.Departments) == 0 && qf.IsActive == nil &&
		qf.HiredFrom.IsZero() && qf.HiredTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
