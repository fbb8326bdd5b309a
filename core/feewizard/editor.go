package feewizard

import (
	"context"
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
	"github.com/trezcool/masomo-admin/core/fee"
)

var ErrUnknownStep = errors.New("unknown step")

type (
	// FeeStructureDraftEditor is a step-gated editor that ends by saving fee structures.
	// Steps are numbered from 1.
	FeeStructureDraftEditor interface {
		Step() int
		Steps() []string
		Next() error
		Back()
		IsStepValid(step int) bool
		Validate(step int) error
		Save(ctx context.Context) (*SaveReport, error)
	}

	YearRepository interface {
		QueryAcademicYears(ctx context.Context) ([]calendar.AcademicYear, error)
	}

	// ReferenceData is what a wizard needs to validate a draft.
	ReferenceData struct {
		Years       []calendar.AcademicYear `json:"academicYears"`
		FeeBuckets  []fee.FeeBucket         `json:"feeBuckets"`
		GradeLevels []fee.GradeLevel        `json:"gradeLevels"`
	}

	StructureFailure struct {
		Name   string `json:"name"`
		TermID string `json:"termId,omitempty"`
		Error  string `json:"error"`
	}

	// SaveReport lists everything a save did, including what failed.
	SaveReport struct {
		Structures []fee.FeeStructure    `json:"structures"`
		Payloads   []fee.NewFeeStructure `json:"payloads"`
		Updated    []fee.FeeStructure    `json:"updated,omitempty"`
		Deleted    []string              `json:"deleted,omitempty"`
		Warnings   []string              `json:"warnings,omitempty"`
		Failures   []StructureFailure    `json:"failures,omitempty"`
	}

	// PartialFailureError is returned when some structures of a batch could not be saved.
	// Successful ones are not rolled back.
	PartialFailureError struct {
		Report *SaveReport
	}
)

func (e *PartialFailureError) Error() string {
	msgs := make([]string, 0, len(e.Report.Failures))
	for _, f := range e.Report.Failures {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Name, f.Error))
	}
	return fmt.Sprintf(
		"%d fee structure(s) saved, %d failed: %s",
		len(e.Report.Structures)+len(e.Report.Updated), len(e.Report.Failures), strings.Join(msgs, "; "),
	)
}

// LoadReferenceData fetches academic years, fee buckets and grade levels concurrently.
func LoadReferenceData(ctx context.Context, years YearRepository, fees fee.Repository, schoolType string) (ReferenceData, error) {
	var ref ReferenceData
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ys, err := years.QueryAcademicYears(ctx)
		if err != nil {
			return errors.Wrap(err, "querying academic years")
		}
		ref.Years = ys
		return nil
	})
	g.Go(func() error {
		bs, err := fees.QueryFeeBuckets(ctx)
		if err != nil {
			return errors.Wrap(err, "querying fee buckets")
		}
		ref.FeeBuckets = bs
		return nil
	})
	g.Go(func() error {
		gls, err := fees.QueryGradeLevels(ctx, schoolType)
		if err != nil {
			return errors.Wrap(err, "querying grade levels")
		}
		ref.GradeLevels = gls
		return nil
	})
	if err := g.Wait(); err != nil {
		return ReferenceData{}, err
	}
	return ref, nil
}

func (ref ReferenceData) hasGradeLevel(id string) bool {
	for _, gl := range ref.GradeLevels {
		if gl.ID == id {
			return true
		}
	}
	return false
}

// stepper holds the forward/back navigation shared by the wizards.
type stepper struct {
	step  int
	steps []string
}

func (s *stepper) Step() int { return s.step }

func (s *stepper) Steps() []string { return s.steps }

func (s *stepper) Back() {
	if s.step > 1 {
		s.step--
	}
}

func (s *stepper) next(validate func(step int) error) error {
	if err := validate(s.step); err != nil {
		return err
	}
	if s.step < len(s.steps) {
		s.step++
	}
	return nil
}

func (s *stepper) checkStep(step int) error {
	if step < 1 || step > len(s.steps) {
		return errors.Wrapf(ErrUnknownStep, "%d", step)
	}
	return nil
}

// translateErr turns validator errors into field errors anchored under prefix.
func translateErr(err error, translator ut.Translator, prefix string, errs *core.FieldErrors) error {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	for _, fe := range core.TranslateValidationErrors(vErrs, translator) {
		errs.Add(prefix+fe.Field, fe.Error)
	}
	return nil
}

func checkGradeLevels(ref ReferenceData, ids []string, errs *core.FieldErrors) {
	if len(ids) == 0 {
		errs.Add("gradeLevelIds", "select at least one grade level")
		return
	}
	if len(ref.GradeLevels) == 0 {
		return
	}
	for i, id := range ids {
		if !ref.hasGradeLevel(id) {
			errs.Add(fmt.Sprintf("gradeLevelIds[%d]", i), fmt.Sprintf("unknown grade level %q", id))
		}
	}
}

func stepsErr(errs core.FieldErrors, step int) error {
	return errs.Err(fmt.Sprintf("step %d is incomplete", step))
}
