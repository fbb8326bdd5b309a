package calendar

import (
	"context"
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
)

type Phase string

const (
	PhaseAcademicYear Phase = "academic-year"
	PhaseTerms        Phase = "terms"
	PhaseSuccess      Phase = "success"
)

var (
	ErrWrongPhase = errors.New("operation not allowed in the current phase")
	ErrNoTerms    = errors.New("at least one term is required")
)

type (
	Repository interface {
		QueryAcademicYears(ctx context.Context) ([]AcademicYear, error)
		CreateAcademicYear(ctx context.Context, ny NewAcademicYear) (AcademicYear, error)
		CreateTerm(ctx context.Context, yearID string, nt NewTerm) (Term, error)
	}

	TermFailure struct {
		Index int    `json:"index"`
		Name  string `json:"name"`
		Error string `json:"error"`
	}

	// Summary describes a finished calendar creation.
	Summary struct {
		Year         AcademicYear  `json:"year"`
		Terms        []Term        `json:"terms"`
		Failures     []TermFailure `json:"failures,omitempty"`
		DurationDays int           `json:"durationDays"`
		Message      string        `json:"message"`
	}

	// TermsError is returned when some (or all) terms could not be created.
	TermsError struct {
		Created  int
		Failures []TermFailure
	}

	// Creator walks academic-year -> terms -> success, forward only.
	// The year created in the first phase is the only year the terms are attached to.
	Creator struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger

		phase Phase
		year  AcademicYear
		terms []Term
	}
)

func (e *TermsError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Name, f.Error))
	}
	return fmt.Sprintf("%d term(s) created, %d failed: %s", e.Created, len(e.Failures), strings.Join(msgs, "; "))
}

func NewCreator(repo Repository, validate *validator.Validate, translator ut.Translator, logger core.Logger) *Creator {
	return &Creator{
		repo:       repo,
		validate:   validate,
		translator: translator,
		logger:     logger,
		phase:      PhaseAcademicYear,
	}
}

func (c *Creator) Phase() Phase { return c.phase }

// Year returns the year created in the first phase.
func (c *Creator) Year() AcademicYear { return c.year }

func (ny *NewAcademicYear) Validate(validate *validator.Validate) error {
	ny.Name = core.CleanString(ny.Name)
	ny.StartDate = core.CleanString(ny.StartDate)
	ny.EndDate = core.CleanString(ny.EndDate)
	return validate.Struct(ny)
}

// CreateYear validates and creates the academic year, then moves on to the terms phase.
func (c *Creator) CreateYear(ctx context.Context, ny NewAcademicYear) (AcademicYear, error) {
	if c.phase != PhaseAcademicYear {
		return AcademicYear{}, ErrWrongPhase
	}
	if err := ny.Validate(c.validate); err != nil {
		return AcademicYear{}, err
	}

	year, err := c.repo.CreateAcademicYear(ctx, ny)
	if err != nil {
		return AcademicYear{}, errors.Wrap(err, "creating academic year")
	}
	if year.StartDate.IsZero() || year.EndDate.IsZero() {
		year.StartDate, _ = core.ParseDate(ny.StartDate)
		year.EndDate, _ = core.ParseDate(ny.EndDate)
	}
	c.year = year
	c.phase = PhaseTerms
	c.logger.Info("academic year created", map[string]interface{}{"id": year.ID, "name": year.Name})
	return year, nil
}

// validateTerms checks every non-empty term before anything is submitted.
func (c *Creator) validateTerms(terms []NewTerm) ([]int, error) {
	var (
		indexes []int
		errs    core.FieldErrors
	)
	yearStart, yearEnd := c.year.StartDate, c.year.EndDate

	for i := range terms {
		if terms[i].IsEmpty() {
			continue
		}
		indexes = append(indexes, i)

		nt := &terms[i]
		nt.Name = core.CleanString(nt.Name)
		nt.StartDate = core.CleanString(nt.StartDate)
		nt.EndDate = core.CleanString(nt.EndDate)
		if err := c.validate.Struct(nt); err != nil {
			vErrs, ok := err.(validator.ValidationErrors)
			if !ok {
				return nil, err
			}
			for _, fe := range core.TranslateValidationErrors(vErrs, c.translator) {
				errs.Add(fmt.Sprintf("terms[%d].%s", i, fe.Field), fe.Error)
			}
			continue
		}

		start, _ := core.ParseDate(nt.StartDate)
		end, _ := core.ParseDate(nt.EndDate)
		if !yearStart.IsZero() && start.Before(yearStart.Time) {
			errs.Add(fmt.Sprintf("terms[%d].startDate", i), "term must start within the academic year")
		}
		if !yearEnd.IsZero() && end.After(yearEnd.Time) {
			errs.Add(fmt.Sprintf("terms[%d].endDate", i), "term must end within the academic year")
		}
	}
	if err := errs.Err("invalid terms"); err != nil {
		return nil, err
	}
	if len(indexes) == 0 {
		return nil, core.NewValidationError(ErrNoTerms, core.FieldError{Field: "terms", Error: ErrNoTerms.Error()})
	}
	return indexes, nil
}

// SubmitTerms creates the non-empty terms one after the other, checking ctx between submissions.
// It moves on to success when at least one term was created; failed terms are reported in a *TermsError.
func (c *Creator) SubmitTerms(ctx context.Context, terms []NewTerm) (*Summary, error) {
	if c.phase != PhaseTerms {
		return nil, ErrWrongPhase
	}
	terms = append([]NewTerm(nil), terms...)
	indexes, err := c.validateTerms(terms)
	if err != nil {
		return nil, err
	}

	var failures []TermFailure
	for n, i := range indexes {
		if err := ctx.Err(); err != nil {
			for _, j := range indexes[n:] {
				failures = append(failures, TermFailure{Index: j, Name: terms[j].Name, Error: "cancelled"})
			}
			break
		}
		term, err := c.repo.CreateTerm(ctx, c.year.ID, terms[i])
		if err != nil {
			c.logger.Warn("creating term", err, map[string]interface{}{"year": c.year.ID, "term": terms[i].Name})
			failures = append(failures, TermFailure{Index: i, Name: terms[i].Name, Error: core.UserMessage(err)})
			continue
		}
		c.terms = append(c.terms, term)
	}

	var termsErr error
	if len(failures) > 0 {
		termsErr = &TermsError{Created: len(c.terms), Failures: failures}
	}
	if len(c.terms) == 0 {
		return nil, termsErr
	}

	c.phase = PhaseSuccess
	c.year.Terms = append([]Term(nil), c.terms...)
	days := c.year.StartDate.DaysUntil(c.year.EndDate)
	return &Summary{
		Year:         c.year,
		Terms:        c.terms,
		Failures:     failures,
		DurationDays: days,
		Message:      fmt.Sprintf("Academic year %s created (%d days duration) with %d term(s)", c.year.Name, days, len(c.terms)),
	}, termsErr
}
