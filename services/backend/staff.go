package backend

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core/staff"
)

const (
	routeCreateStaff = "/api/school/create-staff"

	queryStaffMembers = `query StaffMembers {
		staffMembers {
			id firstName lastName email phone role department employmentType qualification hireDate isActive createdAt
		}
	}`
)

type staffRepository struct {
	client *Client
}

var _ staff.Repository = (*staffRepository)(nil)

func NewStaffRepository(client *Client) staff.Repository {
	return &staffRepository{client: client}
}

func (repo *staffRepository) QueryAllStaff(ctx context.Context) ([]staff.Staff, error) {
	var data struct {
		StaffMembers []staff.Staff `json:"staffMembers"`
	}
	if err := repo.client.Query(ctx, queryStaffMembers, nil, &data); err != nil {
		return nil, errors.Wrap(err, "querying staff members")
	}
	return data.StaffMembers, nil
}

func (repo *staffRepository) GetStaffByID(ctx context.Context, id string) (staff.Staff, error) {
	all, err := repo.QueryAllStaff(ctx)
	if err != nil {
		return staff.Staff{}, err
	}
	for _, s := range all {
		if s.ID == id {
			return s, nil
		}
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) CreateStaff(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	body := staff.NewStaff{
		FirstName:      s.FirstName,
		LastName:       s.LastName,
		Email:          s.Email,
		Phone:          s.Phone,
		Role:           s.Role,
		Department:     s.Department,
		EmploymentType: s.EmploymentType,
		Qualification:  s.Qualification,
		HireDate:       s.HireDate.String(),
	}
	var created staff.Staff
	if err := repo.client.Post(ctx, routeCreateStaff, body, &created); err != nil {
		return staff.Staff{}, err
	}
	return created, nil
}
