package feewizard

import (
	"context"
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
	"github.com/trezcool/masomo-admin/core/fee"
)

// Uniform wizard steps
const (
	StepBasicInfo = iota + 1
	StepGradeSelection
	StepTermsSetup
	StepFeeComponents
	StepReview
)

var uniformSteps = []string{"Basic Info", "Grade Selection", "Terms Setup", "Fee Components", "Review"}

// UniformAmountWizard edits one draft and saves it as a single fee structure
// covering all of its grades and terms with one amount per bucket.
type UniformAmountWizard struct {
	stepper
	repo       fee.Repository
	ref        ReferenceData
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
	draft      fee.Draft
}

var _ FeeStructureDraftEditor = (*UniformAmountWizard)(nil)

func NewUniformAmountWizard(
	repo fee.Repository,
	ref ReferenceData,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) *UniformAmountWizard {
	return &UniformAmountWizard{
		stepper:    stepper{step: StepBasicInfo, steps: uniformSteps},
		repo:       repo,
		ref:        ref,
		validate:   validate,
		translator: translator,
		logger:     logger,
		draft:      fee.NewDraft(ref.FeeBuckets),
	}
}

func (w *UniformAmountWizard) Draft() fee.Draft { return w.draft }

// SetDraft replaces the draft; a draft without catalog gets the reference buckets.
func (w *UniformAmountWizard) SetDraft(d fee.Draft) {
	if len(d.Catalog) == 0 {
		d.Catalog = w.ref.FeeBuckets
	}
	w.draft = d
}

// Apply runs action against the draft. The draft is left unchanged on error.
func (w *UniformAmountWizard) Apply(action fee.Action) error {
	d, err := fee.Apply(w.draft, action)
	if err != nil {
		return err
	}
	w.draft = d
	return nil
}

func (w *UniformAmountWizard) Next() error { return w.stepper.next(w.Validate) }

func (w *UniformAmountWizard) IsStepValid(step int) bool { return w.Validate(step) == nil }

// Validate checks the given step. The review step checks all the others.
func (w *UniformAmountWizard) Validate(step int) error {
	if err := w.checkStep(step); err != nil {
		return err
	}
	var errs core.FieldErrors
	steps := []int{step}
	if step == StepReview {
		steps = []int{StepBasicInfo, StepGradeSelection, StepTermsSetup, StepFeeComponents}
	}
	for _, s := range steps {
		if err := w.validateStep(s, &errs); err != nil {
			return err
		}
	}
	return stepsErr(errs, step)
}

func (w *UniformAmountWizard) validateStep(step int, errs *core.FieldErrors) error {
	form := w.draft.Form
	switch step {
	case StepBasicInfo:
		if err := w.validate.StructPartial(form, "Name", "AcademicYear", "BoardingType"); err != nil {
			return translateErr(err, w.translator, "", errs)
		}
		if _, ok := calendar.FindYear(w.ref.Years, form.AcademicYear); !ok {
			errs.Add("academicYear", fmt.Sprintf("academic year %q does not exist", form.AcademicYear))
		}

	case StepGradeSelection:
		checkGradeLevels(w.ref, form.GradeLevelIDs, errs)

	case StepTermsSetup:
		if len(form.TermStructures) == 0 {
			errs.Add("termStructures", "add at least one term")
			return nil
		}
		seen := make(map[string]int)
		for i, ts := range form.TermStructures {
			name := core.CleanString(ts.Term, true /* lower */)
			if j, ok := seen[name]; ok && name != "" {
				errs.Add(fmt.Sprintf("termStructures[%d].term", i), fmt.Sprintf("duplicate of term %d", j+1))
			} else {
				seen[name] = i
			}
			if err := w.validate.Struct(ts); err != nil {
				if err := translateErr(err, w.translator, fmt.Sprintf("termStructures[%d].", i), errs); err != nil {
					return err
				}
			}
		}
		if year, ok := calendar.FindYear(w.ref.Years, form.AcademicYear); ok {
			if _, err := fee.ResolveTermIDs(year, form.TermStructures); err != nil {
				vErr, ok := errors.Cause(err).(*core.ValidationError)
				if !ok {
					return err
				}
				*errs = append(*errs, vErr.Fields...)
			}
		}

	case StepFeeComponents:
		for i, ts := range form.TermStructures {
			if !hasNamedBucket(ts) {
				errs.Add(fmt.Sprintf("termStructures[%d].buckets", i), "add at least one fee bucket with a name")
			}
		}
	}
	return nil
}

// hasNamedBucket tells whether the term carries at least one named bucket or a positive existing bucket amount.
func hasNamedBucket(ts fee.TermStructure) bool {
	for _, b := range ts.Buckets {
		if strings.TrimSpace(b.Name) != "" {
			return true
		}
	}
	for _, a := range ts.ExistingBucketAmounts {
		if a.IsPositive() {
			return true
		}
	}
	return false
}

// Payload builds the create payload without saving anything.
func (w *UniformAmountWizard) Payload() (fee.NewFeeStructure, []string, error) {
	if err := w.Validate(StepReview); err != nil {
		return fee.NewFeeStructure{}, nil, err
	}
	form := w.draft.Form
	year, _ := calendar.FindYear(w.ref.Years, form.AcademicYear)
	termIDs, err := fee.ResolveTermIDs(year, form.TermStructures)
	if err != nil {
		return fee.NewFeeStructure{}, nil, err
	}
	res, err := fee.Aggregate(form.TermStructures, termIDs)
	if err != nil {
		return fee.NewFeeStructure{}, nil, err
	}

	var warnings []string
	for _, sk := range res.Skipped {
		name := sk.Name
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("bucket %d", sk.BucketIndex+1)
		}
		warnings = append(warnings, fmt.Sprintf(
			"%s: %q (%s) is not linked to a saved fee bucket and was left out",
			sk.Term, name, sk.Total.Format(),
		))
	}
	return fee.NewFeeStructure{
		Name:           core.CleanString(form.Name),
		AcademicYearID: year.ID,
		GradeLevelIDs:  append([]string(nil), form.GradeLevelIDs...),
		Items:          res.Items,
	}, warnings, nil
}

// Save creates one fee structure from the whole draft.
func (w *UniformAmountWizard) Save(ctx context.Context) (*SaveReport, error) {
	payload, warnings, err := w.Payload()
	if err != nil {
		return nil, err
	}
	for _, warning := range warnings {
		w.logger.Warn("fee structure draft", map[string]interface{}{"warning": warning})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs, err := w.repo.CreateFeeStructure(ctx, payload)
	if err != nil {
		return nil, errors.Wrap(err, "creating fee structure")
	}
	w.logger.Info("fee structure created", map[string]interface{}{"id": fs.ID, "name": fs.Name, "items": len(payload.Items)})
	return &SaveReport{
		Structures: []fee.FeeStructure{fs},
		Payloads:   []fee.NewFeeStructure{payload},
		Warnings:   warnings,
	}, nil
}
