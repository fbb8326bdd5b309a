package memdb

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core/fee"
)

type feeRepository struct {
	db  *feeTable
	cal *calendarTable
}

var _ fee.Repository = (*feeRepository)(nil)

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db.fee, cal: db.calendar}
}

func copyBucket(b *fee.FeeBucket) fee.FeeBucket {
	cp := *b
	cp.Components = append([]fee.Component(nil), b.Components...)
	return cp
}

func copyStructure(fs *fee.FeeStructure) fee.FeeStructure {
	cp := *fs
	cp.Terms = append([]fee.Ref{}, fs.Terms...)
	cp.GradeLevels = append([]fee.Ref{}, fs.GradeLevels...)
	cp.Items = append([]fee.FeeItem{}, fs.Items...)
	return cp
}

func (repo *feeRepository) QueryFeeBuckets(_ context.Context) ([]fee.FeeBucket, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	buckets := make([]fee.FeeBucket, 0, len(repo.db.buckets))
	for _, b := range repo.db.buckets {
		buckets = append(buckets, copyBucket(b))
	}
	return buckets, nil
}

func (repo *feeRepository) bucketByID(id string) (*fee.FeeBucket, int) {
	for i, b := range repo.db.buckets {
		if b.ID == id {
			return b, i
		}
	}
	return nil, -1
}

func (repo *feeRepository) CreateFeeBucket(_ context.Context, nb fee.NewFeeBucket) (fee.FeeBucket, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	b := &fee.FeeBucket{ID: newID(), Name: nb.Name, Description: nb.Description, IsActive: true}
	repo.db.buckets = append(repo.db.buckets, b)
	return copyBucket(b), nil
}

func (repo *feeRepository) UpdateFeeBucket(_ context.Context, id string, ub fee.UpdateFeeBucket) (fee.FeeBucket, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	b, _ := repo.bucketByID(id)
	if b == nil {
		return fee.FeeBucket{}, fee.ErrFeeBucketNotFound
	}
	if ub.Name != "" {
		b.Name = ub.Name
	}
	if ub.Description != "" {
		b.Description = ub.Description
	}
	if ub.IsActive != nil {
		b.IsActive = *ub.IsActive
	}
	return copyBucket(b), nil
}

func (repo *feeRepository) DeleteFeeBucket(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	_, i := repo.bucketByID(id)
	if i < 0 {
		return fee.ErrFeeBucketNotFound
	}
	for _, fs := range repo.db.structures {
		for _, it := range fs.Items {
			if it.FeeBucket.ID == id {
				return errors.Errorf("fee bucket is used by fee structure %q", fs.Name)
			}
		}
	}
	repo.db.buckets = append(repo.db.buckets[:i], repo.db.buckets[i+1:]...)
	return nil
}

func (repo *feeRepository) QueryFeeStructures(_ context.Context) ([]fee.FeeStructure, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	structures := make([]fee.FeeStructure, 0, len(repo.db.structures))
	for _, fs := range repo.db.structures {
		structures = append(structures, copyStructure(fs))
	}
	return structures, nil
}

func (repo *feeRepository) structureByID(id string) (*fee.FeeStructure, int) {
	for i, fs := range repo.db.structures {
		if fs.ID == id {
			return fs, i
		}
	}
	return nil, -1
}

func (repo *feeRepository) GetFeeStructure(_ context.Context, id string) (fee.FeeStructure, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	fs, _ := repo.structureByID(id)
	if fs == nil {
		return fee.FeeStructure{}, fee.ErrStructureNotFound
	}
	return copyStructure(fs), nil
}

func (repo *feeRepository) gradeRefs(ids []string) ([]fee.Ref, error) {
	refs := make([]fee.Ref, 0, len(ids))
	for _, id := range ids {
		var found bool
		for _, g := range repo.db.gradeLevels {
			if g.ID == id {
				refs = append(refs, fee.Ref{ID: g.ID, Name: g.Name})
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("unknown grade level %s", id)
		}
	}
	return refs, nil
}

// CreateFeeStructure resolves every referenced id like the backend does.
// The structure's terms are the union of its items' terms, in first-seen order.
func (repo *feeRepository) CreateFeeStructure(_ context.Context, nfs fee.NewFeeStructure) (fee.FeeStructure, error) {
	if len(nfs.Items) == 0 {
		return fee.FeeStructure{}, errors.New("a fee structure needs at least one item")
	}

	repo.cal.mutex.RLock()
	var yearRef fee.Ref
	termNames := make(map[string]string)
	for _, y := range repo.cal.years {
		if y.ID == nfs.AcademicYearID {
			yearRef = fee.Ref{ID: y.ID, Name: y.Name}
			for _, t := range y.Terms {
				termNames[t.ID] = t.Name
			}
		}
	}
	repo.cal.mutex.RUnlock()
	if yearRef.ID == "" {
		return fee.FeeStructure{}, ErrYearNotFound
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	grades, err := repo.gradeRefs(nfs.GradeLevelIDs)
	if err != nil {
		return fee.FeeStructure{}, err
	}

	fs := &fee.FeeStructure{
		ID:           newID(),
		Name:         strings.TrimSpace(nfs.Name),
		AcademicYear: yearRef,
		Terms:        []fee.Ref{},
		GradeLevels:  grades,
		Items:        make([]fee.FeeItem, 0, len(nfs.Items)),
		IsActive:     true,
	}
	seenTerms := make(map[string]bool)
	for _, it := range nfs.Items {
		b, _ := repo.bucketByID(it.FeeBucketID)
		if b == nil {
			return fee.FeeStructure{}, fee.ErrFeeBucketNotFound
		}
		for _, tid := range it.TermIDs {
			name, ok := termNames[tid]
			if !ok {
				return fee.FeeStructure{}, errors.Errorf("term %s is not part of %s", tid, yearRef.Name)
			}
			if !seenTerms[tid] {
				seenTerms[tid] = true
				fs.Terms = append(fs.Terms, fee.Ref{ID: tid, Name: name})
			}
		}
		fs.Items = append(fs.Items, fee.FeeItem{
			ID:          newID(),
			FeeBucket:   fee.Ref{ID: b.ID, Name: b.Name},
			Amount:      it.Amount,
			IsMandatory: it.IsMandatory,
		})
	}

	repo.db.structures = append(repo.db.structures, fs)
	return copyStructure(fs), nil
}

func (repo *feeRepository) UpdateFeeStructure(_ context.Context, id string, ufs fee.UpdateFeeStructure) (fee.FeeStructure, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	fs, _ := repo.structureByID(id)
	if fs == nil {
		return fee.FeeStructure{}, fee.ErrStructureNotFound
	}
	if ufs.GradeLevelIDs != nil {
		grades, err := repo.gradeRefs(ufs.GradeLevelIDs)
		if err != nil {
			return fee.FeeStructure{}, err
		}
		fs.GradeLevels = grades
	}
	if ufs.Name != nil {
		fs.Name = strings.TrimSpace(*ufs.Name)
	}
	if ufs.IsActive != nil {
		fs.IsActive = *ufs.IsActive
	}
	return copyStructure(fs), nil
}

func (repo *feeRepository) DeleteFeeStructure(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	_, i := repo.structureByID(id)
	if i < 0 {
		return fee.ErrStructureNotFound
	}
	repo.db.structures = append(repo.db.structures[:i], repo.db.structures[i+1:]...)
	return nil
}

// QueryGradeLevels returns every grade level when schoolType is empty.
func (repo *feeRepository) QueryGradeLevels(_ context.Context, schoolType string) ([]fee.GradeLevel, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grades := make([]fee.GradeLevel, 0, len(repo.db.gradeLevels))
	for _, g := range repo.db.gradeLevels {
		if schoolType == "" || strings.EqualFold(g.SchoolType, schoolType) {
			grades = append(grades, g)
		}
	}
	return grades, nil
}

// AddGradeLevels stores grade levels; the backend owns them and exposes no mutation for them.
func (db *DB) AddGradeLevels(grades ...fee.GradeLevel) {
	db.fee.mutex.Lock()
	defer db.fee.mutex.Unlock()

	for _, g := range grades {
		if g.ID == "" {
			g.ID = newID()
		}
		db.fee.gradeLevels = append(db.fee.gradeLevels, g)
	}
}
