package memdb

import (
	"context"

	"github.com/trezcool/masomo-admin/core/staff"
)

type staffRepository struct {
	db *staffTable
}

var _ staff.Repository = (*staffRepository)(nil)

func NewStaffRepository(db *DB) staff.Repository {
	return &staffRepository{db: db.staff}
}

func (repo *staffRepository) QueryAllStaff(_ context.Context) ([]staff.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	all := make([]staff.Staff, 0, len(repo.db.t))
	for _, s := range repo.db.t {
		all = append(all, *s)
	}
	return all, nil
}

func (repo *staffRepository) GetStaffByID(_ context.Context, id string) (staff.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.t {
		if s.ID == id {
			return *s, nil
		}
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) CreateStaff(_ context.Context, s staff.Staff) (staff.Staff, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if s.ID == "" {
		s.ID = newID()
	}
	repo.db.t = append(repo.db.t, &s)
	return s, nil
}
