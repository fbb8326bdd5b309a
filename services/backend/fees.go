package backend

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core/fee"
)

const (
	feeBucketFields = `id name description isActive components { name description amount category }`

	feeStructureFields = `
		id
		name
		isActive
		academicYear { id name }
		terms { id name }
		gradeLevels { id name }
		items { id feeBucket { id name } amount isMandatory }`

	queryFeeBuckets = `query FeeBuckets { feeBuckets { ` + feeBucketFields + ` } }`

	queryFeeStructures = `query FeeStructures { feeStructures { ` + feeStructureFields + ` } }`

	queryFeeStructure = `query FeeStructure($id: ID!) { feeStructure(id: $id) { ` + feeStructureFields + ` } }`

	queryGradeLevels = `query GradeLevels($schoolType: String) {
		gradeLevelsForSchoolType(schoolType: $schoolType) { id name schoolType }
	}`

	mutationCreateFeeStructure = `mutation CreateFeeStructure($input: CreateFeeStructureWithItemsInput!) {
		createFeeStructureWithItems(input: $input) { ` + feeStructureFields + ` }
	}`

	mutationUpdateFeeStructure = `mutation UpdateFeeStructure($id: ID!, $input: UpdateFeeStructureInput!) {
		updateFeeStructure(id: $id, input: $input) { ` + feeStructureFields + ` }
	}`

	mutationDeleteFeeStructure = `mutation DeleteFeeStructure($id: ID!) { deleteFeeStructure(id: $id) }`

	mutationCreateFeeBucket = `mutation CreateFeeBucket($input: CreateFeeBucketInput!) {
		createFeeBucket(input: $input) { ` + feeBucketFields + ` }
	}`

	mutationUpdateFeeBucket = `mutation UpdateFeeBucket($id: ID!, $input: UpdateFeeBucketInput!) {
		updateFeeBucket(id: $id, input: $input) { ` + feeBucketFields + ` }
	}`

	mutationDeleteFeeBucket = `mutation DeleteFeeBucket($id: ID!) { deleteFeeBucket(id: $id) }`
)

type (
	feeRepository struct {
		client *Client
	}

	// wireFeeItem sends the amount as a JSON number.
	wireFeeItem struct {
		FeeBucketID string      `json:"feeBucketId"`
		Amount      json.Number `json:"amount"`
		IsMandatory bool        `json:"isMandatory"`
		TermIDs     []string    `json:"termIds"`
	}

	wireFeeStructure struct {
		Name           string        `json:"name"`
		AcademicYearID string        `json:"academicYearId"`
		GradeLevelIDs  []string      `json:"gradeLevelIds"`
		Items          []wireFeeItem `json:"items"`
	}
)

var _ fee.Repository = (*feeRepository)(nil)

func NewFeeRepository(client *Client) fee.Repository {
	return &feeRepository{client: client}
}

func toWire(nfs fee.NewFeeStructure) wireFeeStructure {
	w := wireFeeStructure{
		Name:           nfs.Name,
		AcademicYearID: nfs.AcademicYearID,
		GradeLevelIDs:  nfs.GradeLevelIDs,
		Items:          make([]wireFeeItem, 0, len(nfs.Items)),
	}
	if w.GradeLevelIDs == nil {
		w.GradeLevelIDs = []string{}
	}
	for _, it := range nfs.Items {
		w.Items = append(w.Items, wireFeeItem{
			FeeBucketID: it.FeeBucketID,
			Amount:      it.Amount.Number(),
			IsMandatory: it.IsMandatory,
			TermIDs:     it.TermIDs,
		})
	}
	return w
}

func (repo *feeRepository) QueryFeeBuckets(ctx context.Context) ([]fee.FeeBucket, error) {
	var data struct {
		FeeBuckets []fee.FeeBucket `json:"feeBuckets"`
	}
	if err := repo.client.Query(ctx, queryFeeBuckets, nil, &data); err != nil {
		return nil, errors.Wrap(err, "querying fee buckets")
	}
	return data.FeeBuckets, nil
}

func (repo *feeRepository) CreateFeeBucket(ctx context.Context, nb fee.NewFeeBucket) (fee.FeeBucket, error) {
	var data struct {
		FeeBucket fee.FeeBucket `json:"createFeeBucket"`
	}
	vars := map[string]interface{}{"input": nb}
	if err := repo.client.Query(ctx, mutationCreateFeeBucket, vars, &data); err != nil {
		return fee.FeeBucket{}, err
	}
	return data.FeeBucket, nil
}

func (repo *feeRepository) UpdateFeeBucket(ctx context.Context, id string, ub fee.UpdateFeeBucket) (fee.FeeBucket, error) {
	var data struct {
		FeeBucket fee.FeeBucket `json:"updateFeeBucket"`
	}
	vars := map[string]interface{}{"id": id, "input": ub}
	if err := repo.client.Query(ctx, mutationUpdateFeeBucket, vars, &data); err != nil {
		if IsNotFound(err) {
			return fee.FeeBucket{}, fee.ErrFeeBucketNotFound
		}
		return fee.FeeBucket{}, err
	}
	return data.FeeBucket, nil
}

func (repo *feeRepository) DeleteFeeBucket(ctx context.Context, id string) error {
	var data struct {
		Deleted bool `json:"deleteFeeBucket"`
	}
	if err := repo.client.Query(ctx, mutationDeleteFeeBucket, map[string]interface{}{"id": id}, &data); err != nil {
		if IsNotFound(err) {
			return fee.ErrFeeBucketNotFound
		}
		return err
	}
	if !data.Deleted {
		return fee.ErrFeeBucketNotFound
	}
	return nil
}

func (repo *feeRepository) QueryFeeStructures(ctx context.Context) ([]fee.FeeStructure, error) {
	var data struct {
		FeeStructures []fee.FeeStructure `json:"feeStructures"`
	}
	if err := repo.client.Query(ctx, queryFeeStructures, nil, &data); err != nil {
		return nil, errors.Wrap(err, "querying fee structures")
	}
	return data.FeeStructures, nil
}

func (repo *feeRepository) GetFeeStructure(ctx context.Context, id string) (fee.FeeStructure, error) {
	var data struct {
		FeeStructure *fee.FeeStructure `json:"feeStructure"`
	}
	if err := repo.client.Query(ctx, queryFeeStructure, map[string]interface{}{"id": id}, &data); err != nil {
		if IsNotFound(err) {
			return fee.FeeStructure{}, fee.ErrStructureNotFound
		}
		return fee.FeeStructure{}, err
	}
	if data.FeeStructure == nil {
		return fee.FeeStructure{}, fee.ErrStructureNotFound
	}
	return *data.FeeStructure, nil
}

func (repo *feeRepository) CreateFeeStructure(ctx context.Context, nfs fee.NewFeeStructure) (fee.FeeStructure, error) {
	var data struct {
		FeeStructure fee.FeeStructure `json:"createFeeStructureWithItems"`
	}
	vars := map[string]interface{}{"input": toWire(nfs)}
	if err := repo.client.Query(ctx, mutationCreateFeeStructure, vars, &data); err != nil {
		return fee.FeeStructure{}, err
	}
	return data.FeeStructure, nil
}

func (repo *feeRepository) UpdateFeeStructure(ctx context.Context, id string, ufs fee.UpdateFeeStructure) (fee.FeeStructure, error) {
	var data struct {
		FeeStructure fee.FeeStructure `json:"updateFeeStructure"`
	}
	vars := map[string]interface{}{"id": id, "input": ufs}
	if err := repo.client.Query(ctx, mutationUpdateFeeStructure, vars, &data); err != nil {
		if IsNotFound(err) {
			return fee.FeeStructure{}, fee.ErrStructureNotFound
		}
		return fee.FeeStructure{}, err
	}
	return data.FeeStructure, nil
}

func (repo *feeRepository) DeleteFeeStructure(ctx context.Context, id string) error {
	var data struct {
		Deleted bool `json:"deleteFeeStructure"`
	}
	if err := repo.client.Query(ctx, mutationDeleteFeeStructure, map[string]interface{}{"id": id}, &data); err != nil {
		if IsNotFound(err) {
			return fee.ErrStructureNotFound
		}
		return err
	}
	if !data.Deleted {
		return fee.ErrStructureNotFound
	}
	return nil
}

func (repo *feeRepository) QueryGradeLevels(ctx context.Context, schoolType string) ([]fee.GradeLevel, error) {
	var data struct {
		GradeLevels []fee.GradeLevel `json:"gradeLevelsForSchoolType"`
	}
	var vars map[string]interface{}
	if schoolType != "" {
		vars = map[string]interface{}{"schoolType": schoolType}
	}
	if err := repo.client.Query(ctx, queryGradeLevels, vars, &data); err != nil {
		return nil, errors.Wrap(err, "querying grade levels")
	}
	return data.GradeLevels, nil
}
