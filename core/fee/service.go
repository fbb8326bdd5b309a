package fee

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrBucketNameExists  = errors.New("a fee bucket with this name already exists")
	ErrStructureNotFound = errors.Wrap(ErrNotFound, "fee structure")
	ErrFeeBucketNotFound = errors.Wrap(ErrNotFound, "fee bucket")
)

type (
	// Repository is implemented by the backend client and the in-memory store.
	Repository interface {
		QueryFeeBuckets(ctx context.Context) ([]FeeBucket, error)
		CreateFeeBucket(ctx context.Context, nb NewFeeBucket) (FeeBucket, error)
		UpdateFeeBucket(ctx context.Context, id string, ub UpdateFeeBucket) (FeeBucket, error)
		DeleteFeeBucket(ctx context.Context, id string) error

		QueryFeeStructures(ctx context.Context) ([]FeeStructure, error)
		GetFeeStructure(ctx context.Context, id string) (FeeStructure, error)
		CreateFeeStructure(ctx context.Context, nfs NewFeeStructure) (FeeStructure, error)
		UpdateFeeStructure(ctx context.Context, id string, ufs UpdateFeeStructure) (FeeStructure, error)
		DeleteFeeStructure(ctx context.Context, id string) error

		QueryGradeLevels(ctx context.Context, schoolType string) ([]GradeLevel, error)
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

func (svc *Service) Repo() Repository { return svc.repo }

func (svc *Service) Buckets(ctx context.Context) ([]FeeBucket, error) {
	return svc.repo.QueryFeeBuckets(ctx)
}

func (svc *Service) checkBucketName(ctx context.Context, name string, excludedID string) error {
	buckets, err := svc.repo.QueryFeeBuckets(ctx)
	if err != nil {
		return errors.Wrap(err, "querying fee buckets")
	}
	for _, b := range buckets {
		if b.ID != excludedID && strings.EqualFold(b.Name, name) {
			return core.NewValidationError(ErrBucketNameExists, core.FieldError{Field: "name", Error: ErrBucketNameExists.Error()})
		}
	}
	return nil
}

func (svc *Service) CreateBucket(ctx context.Context, nb NewFeeBucket) (FeeBucket, error) {
	nb.Name = core.CleanString(nb.Name)
	nb.Description = core.CleanString(nb.Description)
	if err := svc.validate.Struct(nb); err != nil {
		return FeeBucket{}, err
	}
	if err := svc.checkBucketName(ctx, nb.Name, ""); err != nil {
		return FeeBucket{}, err
	}

	fb, err := svc.repo.CreateFeeBucket(ctx, nb)
	if err != nil {
		return FeeBucket{}, errors.Wrap(err, "creating fee bucket")
	}
	svc.logger.Info("fee bucket created", map[string]interface{}{"id": fb.ID, "name": fb.Name})
	return fb, nil
}

func (svc *Service) UpdateBucket(ctx context.Context, id string, ub UpdateFeeBucket) (FeeBucket, error) {
	ub.Name = core.CleanString(ub.Name)
	ub.Description = core.CleanString(ub.Description)
	if err := svc.validate.Struct(ub); err != nil {
		return FeeBucket{}, err
	}
	if ub.Name != "" {
		if err := svc.checkBucketName(ctx, ub.Name, id); err != nil {
			return FeeBucket{}, err
		}
	}
	fb, err := svc.repo.UpdateFeeBucket(ctx, id, ub)
	if err != nil {
		return FeeBucket{}, errors.Wrap(err, "updating fee bucket")
	}
	return fb, nil
}

func (svc *Service) DeleteBucket(ctx context.Context, id string) error {
	return errors.Wrap(svc.repo.DeleteFeeBucket(ctx, id), "deleting fee bucket")
}

func (svc *Service) Structures(ctx context.Context) ([]FeeStructure, error) {
	return svc.repo.QueryFeeStructures(ctx)
}

func (svc *Service) Structure(ctx context.Context, id string) (FeeStructure, error) {
	return svc.repo.GetFeeStructure(ctx, id)
}

func (svc *Service) DeleteStructure(ctx context.Context, id string) error {
	if err := svc.repo.DeleteFeeStructure(ctx, id); err != nil {
		return errors.Wrap(err, "deleting fee structure")
	}
	svc.logger.Info("fee structure deleted", map[string]interface{}{"id": id})
	return nil
}

func (svc *Service) GradeLevels(ctx context.Context, schoolType string) ([]GradeLevel, error) {
	return svc.repo.QueryGradeLevels(ctx, schoolType)
}
