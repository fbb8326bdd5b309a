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

// Per-term wizard steps
const (
	StepSetup = iota + 1
	StepAmounts
	StepPerTermReview
)

var perTermSteps = []string{"Setup", "Amounts", "Review"}

var (
	ErrNotEditing   = errors.New("no fee structure is being edited")
	ErrEditMismatch = errors.New("edited fee structures do not match the form")
)

type (
	// PerTermForm holds one amount per selected term and bucket.
	PerTermForm struct {
		Name              string           `json:"name" validate:"required,notblank,max=200"`
		AcademicYearID    string           `json:"academicYearId" validate:"required"`
		GradeLevelIDs     []string         `json:"gradeLevelIds"`
		SelectedTermIDs   []string         `json:"selectedTermIds"`
		SelectedBuckets   []string         `json:"selectedBuckets"`
		TermBucketAmounts fee.AmountMatrix `json:"termBucketAmounts"`
		OptionalBuckets   map[string]bool  `json:"optionalBuckets"`
	}

	// ProcessedStructure groups sibling structures that were saved per term
	// but are edited as one logical structure.
	ProcessedStructure struct {
		Name           string             `json:"name"`
		AcademicYearID string             `json:"academicYearId"`
		GradeLevelIDs  []string           `json:"gradeLevelIds"`
		Structures     []fee.FeeStructure `json:"structures"`
	}

	// EditState remembers what was loaded so a save can tell what changed.
	EditState struct {
		Name         string           `json:"name"`
		StructureIDs []string         `json:"structureIds"`
		Original     fee.AmountMatrix `json:"original"`
		OriginalTerm []string         `json:"originalTermIds"`
	}

	// PerTermAmountWizard saves one structure per term when amounts differ between terms,
	// and a single structure for all terms otherwise.
	PerTermAmountWizard struct {
		stepper
		repo       fee.Repository
		ref        ReferenceData
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger
		form       PerTermForm
		edit       *EditState
	}
)

var _ FeeStructureDraftEditor = (*PerTermAmountWizard)(nil)

func NewPerTermAmountWizard(
	repo fee.Repository,
	ref ReferenceData,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) *PerTermAmountWizard {
	w := &PerTermAmountWizard{
		stepper:    stepper{step: StepSetup, steps: perTermSteps},
		repo:       repo,
		ref:        ref,
		validate:   validate,
		translator: translator,
		logger:     logger,
	}
	w.SetForm(PerTermForm{})
	return w
}

func (w *PerTermAmountWizard) Form() PerTermForm { return w.form }

func (w *PerTermAmountWizard) SetForm(form PerTermForm) {
	if form.TermBucketAmounts == nil {
		form.TermBucketAmounts = fee.AmountMatrix{}
	}
	if form.OptionalBuckets == nil {
		form.OptionalBuckets = map[string]bool{}
	}
	w.form = form
}

// Edit returns the edit state, nil when creating.
func (w *PerTermAmountWizard) Edit() *EditState { return w.edit }

// Resume restores a wizard from a form and the edit state handed out by a previous load.
func (w *PerTermAmountWizard) Resume(form PerTermForm, edit *EditState) {
	w.SetForm(form)
	w.edit = edit
}

// SetAmount sets the amount of bucketID in termID.
func (w *PerTermAmountWizard) SetAmount(termID, bucketID string, amount fee.Amount) {
	w.form.TermBucketAmounts = w.form.TermBucketAmounts.Set(termID, bucketID, amount)
}

// SetUniformAmount sets the amount of bucketID in every selected term.
func (w *PerTermAmountWizard) SetUniformAmount(bucketID string, amount fee.Amount) {
	for _, termID := range w.form.SelectedTermIDs {
		w.SetAmount(termID, bucketID, amount)
	}
}

func (w *PerTermAmountWizard) Next() error { return w.stepper.next(w.Validate) }

func (w *PerTermAmountWizard) IsStepValid(step int) bool { return w.Validate(step) == nil }

func (w *PerTermAmountWizard) Validate(step int) error {
	if err := w.checkStep(step); err != nil {
		return err
	}
	var errs core.FieldErrors
	steps := []int{step}
	if step == StepPerTermReview {
		steps = []int{StepSetup, StepAmounts}
	}
	for _, s := range steps {
		if err := w.validateStep(s, &errs); err != nil {
			return err
		}
	}
	return stepsErr(errs, step)
}

func (w *PerTermAmountWizard) validateStep(step int, errs *core.FieldErrors) error {
	form := w.form
	switch step {
	case StepSetup:
		form.Name = core.CleanString(form.Name)
		if err := w.validate.Struct(form); err != nil {
			if err := translateErr(err, w.translator, "", errs); err != nil {
				return err
			}
		}
		year, ok := calendar.FindYear(w.ref.Years, form.AcademicYearID)
		if !ok && form.AcademicYearID != "" {
			errs.Add("academicYearId", "academic year does not exist")
		}
		checkGradeLevels(w.ref, form.GradeLevelIDs, errs)

		if len(form.SelectedTermIDs) == 0 {
			errs.Add("selectedTermIds", "select at least one term")
		}
		for i, id := range form.SelectedTermIDs {
			if ok && year.TermName(id) == "" {
				errs.Add(fmt.Sprintf("selectedTermIds[%d]", i), fmt.Sprintf("term %q is not part of %s", id, year.Name))
			}
		}

		if len(form.SelectedBuckets) == 0 {
			errs.Add("selectedBuckets", "select at least one fee bucket")
		}
		for i, id := range form.SelectedBuckets {
			if _, found := fee.FindBucket(w.ref.FeeBuckets, id); !found {
				errs.Add(fmt.Sprintf("selectedBuckets[%d]", i), fmt.Sprintf("fee bucket %q does not exist", id))
			}
		}

	case StepAmounts:
		var positive bool
		for _, termID := range form.SelectedTermIDs {
			for _, bucketID := range form.SelectedBuckets {
				a := form.TermBucketAmounts.Get(termID, bucketID)
				if a.IsNegative() {
					errs.Add(fmt.Sprintf("termBucketAmounts.%s.%s", termID, bucketID), "amount cannot be negative")
				}
				positive = positive || a.IsPositive()
			}
		}
		if !positive {
			errs.Add("termBucketAmounts", fee.ErrNoValidBuckets.Error())
		}
	}
	return nil
}

// HasDifferentAmountsPerTerm tells whether any selected bucket's amount varies between selected terms.
func (w *PerTermAmountWizard) HasDifferentAmountsPerTerm() bool {
	form := w.form
	if len(form.SelectedTermIDs) < 2 {
		return false
	}
	for _, bucketID := range form.SelectedBuckets {
		first := form.TermBucketAmounts.Get(form.SelectedTermIDs[0], bucketID)
		for _, termID := range form.SelectedTermIDs[1:] {
			if !form.TermBucketAmounts.Get(termID, bucketID).Equal(first) {
				return true
			}
		}
	}
	return false
}

func (w *PerTermAmountWizard) items(termID string, termIDs []string) []fee.AggregatedFeeItem {
	var items []fee.AggregatedFeeItem
	for _, bucketID := range w.form.SelectedBuckets {
		a := w.form.TermBucketAmounts.Get(termID, bucketID)
		if !a.IsPositive() {
			continue
		}
		items = append(items, fee.AggregatedFeeItem{
			FeeBucketID: bucketID,
			Amount:      a,
			IsMandatory: !w.form.OptionalBuckets[bucketID],
			TermIDs:     append([]string(nil), termIDs...),
		})
	}
	return items
}

type termPayload struct {
	termID  string
	payload fee.NewFeeStructure
}

// Payloads builds the create payloads without saving anything.
func (w *PerTermAmountWizard) Payloads() ([]fee.NewFeeStructure, error) {
	tps, err := w.termPayloads()
	if err != nil {
		return nil, err
	}
	payloads := make([]fee.NewFeeStructure, 0, len(tps))
	for _, tp := range tps {
		payloads = append(payloads, tp.payload)
	}
	return payloads, nil
}

func (w *PerTermAmountWizard) termPayloads() ([]termPayload, error) {
	if err := w.Validate(StepPerTermReview); err != nil {
		return nil, err
	}
	form := w.form
	name := core.CleanString(form.Name)
	newPayload := func(name string, items []fee.AggregatedFeeItem) fee.NewFeeStructure {
		return fee.NewFeeStructure{
			Name:           name,
			AcademicYearID: form.AcademicYearID,
			GradeLevelIDs:  append([]string(nil), form.GradeLevelIDs...),
			Items:          items,
		}
	}

	var tps []termPayload
	if !w.HasDifferentAmountsPerTerm() {
		items := w.items(form.SelectedTermIDs[0], form.SelectedTermIDs)
		if len(items) > 0 {
			tps = append(tps, termPayload{payload: newPayload(name, items)})
		}
	} else {
		year, _ := calendar.FindYear(w.ref.Years, form.AcademicYearID)
		for _, termID := range form.SelectedTermIDs {
			items := w.items(termID, []string{termID})
			if len(items) == 0 {
				continue
			}
			termName := year.TermName(termID)
			if termName == "" {
				termName = termID
			}
			tps = append(tps, termPayload{termID: termID, payload: newPayload(name+" - "+termName, items)})
		}
	}
	if len(tps) == 0 {
		return nil, fee.ErrNoValidBuckets
	}
	return tps, nil
}

// Save creates the structures (or updates the edited ones).
// Creations run one after the other and stop early when ctx is done.
func (w *PerTermAmountWizard) Save(ctx context.Context) (*SaveReport, error) {
	tps, err := w.termPayloads()
	if err != nil {
		return nil, err
	}
	var edited []fee.FeeStructure
	if w.edit != nil {
		if edited, err = w.loadEdited(ctx); err != nil {
			return nil, err
		}
		if !w.changed() {
			return w.updateInPlace(ctx, tps, edited)
		}
	}

	report := &SaveReport{Payloads: make([]fee.NewFeeStructure, 0, len(tps))}
	for i, tp := range tps {
		report.Payloads = append(report.Payloads, tp.payload)
		if err := ctx.Err(); err != nil {
			for _, rest := range tps[i:] {
				report.Failures = append(report.Failures, StructureFailure{Name: rest.payload.Name, TermID: rest.termID, Error: "cancelled"})
			}
			break
		}
		fs, err := w.repo.CreateFeeStructure(ctx, tp.payload)
		if err != nil {
			if len(tps) == 1 {
				return nil, errors.Wrap(err, "creating fee structure")
			}
			w.logger.Warn("creating fee structure", err, map[string]interface{}{"name": tp.payload.Name})
			report.Failures = append(report.Failures, StructureFailure{Name: tp.payload.Name, TermID: tp.termID, Error: core.UserMessage(err)})
			continue
		}
		report.Structures = append(report.Structures, fs)
	}
	for _, tp := range tps[len(report.Payloads):] {
		report.Payloads = append(report.Payloads, tp.payload)
	}
	w.logger.Info("fee structures created", map[string]interface{}{"created": len(report.Structures), "failed": len(report.Failures)})

	if len(report.Failures) > 0 {
		if w.edit != nil {
			report.Warnings = append(report.Warnings, "previous fee structures were kept because some new ones could not be created")
		}
		return report, &PartialFailureError{Report: report}
	}
	if w.edit != nil {
		if err := w.deleteSiblings(ctx, report, edited); err != nil {
			return report, err
		}
	}
	return report, nil
}

// deleteSiblings removes the structures that were replaced by the ones just created.
func (w *PerTermAmountWizard) deleteSiblings(ctx context.Context, report *SaveReport, edited []fee.FeeStructure) error {
	for _, fs := range edited {
		id := fs.ID
		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, StructureFailure{Name: id, Error: "cancelled"})
			continue
		}
		if err := w.repo.DeleteFeeStructure(ctx, id); err != nil {
			w.logger.Warn("deleting replaced fee structure", err, map[string]interface{}{"id": id})
			report.Failures = append(report.Failures, StructureFailure{Name: id, Error: core.UserMessage(err)})
			continue
		}
		report.Deleted = append(report.Deleted, id)
	}
	if len(report.Failures) > 0 {
		return &PartialFailureError{Report: report}
	}
	w.edit = nil
	return nil
}

// updateInPlace renames the edited siblings and updates their grade levels.
// Siblings saved for a single term keep their " - <term>" suffix.
func (w *PerTermAmountWizard) updateInPlace(ctx context.Context, tps []termPayload, edited []fee.FeeStructure) (*SaveReport, error) {
	report := &SaveReport{}
	for _, tp := range tps {
		report.Payloads = append(report.Payloads, tp.payload)
	}
	base := core.CleanString(w.form.Name)
	year, _ := calendar.FindYear(w.ref.Years, w.form.AcademicYearID)
	for _, fs := range edited {
		name := base
		if len(edited) > 1 && len(fs.Terms) == 1 {
			name = base + " - " + termName(year, fs.Terms[0])
		}
		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, StructureFailure{Name: name, Error: "cancelled"})
			continue
		}
		updated, err := w.repo.UpdateFeeStructure(ctx, fs.ID, fee.UpdateFeeStructure{
			Name:          &name,
			GradeLevelIDs: append([]string(nil), w.form.GradeLevelIDs...),
		})
		if err != nil {
			if len(edited) == 1 {
				return nil, errors.Wrap(err, "updating fee structure")
			}
			report.Failures = append(report.Failures, StructureFailure{Name: name, Error: core.UserMessage(err)})
			continue
		}
		report.Updated = append(report.Updated, updated)
	}
	if len(report.Failures) > 0 {
		return report, &PartialFailureError{Report: report}
	}
	return report, nil
}

// loadEdited reloads the structures named by the edit state.
// Each must belong to the form's academic year and carry the name that was loaded.
func (w *PerTermAmountWizard) loadEdited(ctx context.Context) ([]fee.FeeStructure, error) {
	name := w.edit.Name
	if name == "" {
		name = core.CleanString(w.form.Name)
	}
	year, _ := calendar.FindYear(w.ref.Years, w.form.AcademicYearID)

	edited := make([]fee.FeeStructure, 0, len(w.edit.StructureIDs))
	var errs core.FieldErrors
	for i, id := range w.edit.StructureIDs {
		fs, err := w.repo.GetFeeStructure(ctx, id)
		if err != nil {
			return nil, errors.Wrap(err, "loading edited fee structure")
		}
		switch {
		case fs.AcademicYear.ID != w.form.AcademicYearID:
			errs.Add(fmt.Sprintf("edit.structureIds[%d]", i), fmt.Sprintf("%q belongs to another academic year", fs.Name))
		case fs.Name != name && siblingBase(year, fs) != name:
			errs.Add(fmt.Sprintf("edit.structureIds[%d]", i), fmt.Sprintf("%q is not part of %q", fs.Name, name))
		default:
			edited = append(edited, fs)
		}
	}
	if len(errs) > 0 {
		return nil, core.NewValidationError(ErrEditMismatch, errs...)
	}
	return edited, nil
}

// siblingBase drops the " - <term>" suffix of a structure saved for one of its terms.
func siblingBase(year calendar.AcademicYear, fs fee.FeeStructure) string {
	for _, t := range fs.Terms {
		for _, tn := range []string{t.Name, year.TermName(t.ID)} {
			if suffix := " - " + tn; tn != "" && strings.HasSuffix(fs.Name, suffix) {
				return strings.TrimSuffix(fs.Name, suffix)
			}
		}
	}
	return fs.Name
}

func termName(year calendar.AcademicYear, t fee.Ref) string {
	if name := year.TermName(t.ID); name != "" {
		return name
	}
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

// changed tells whether the amounts or the selected terms differ from what was loaded.
func (w *PerTermAmountWizard) changed() bool {
	form := w.form
	if !sameSet(form.SelectedTermIDs, w.edit.OriginalTerm) {
		return true
	}
	for _, termID := range form.SelectedTermIDs {
		row := make(map[string]bool)
		for bucketID := range form.TermBucketAmounts[termID] {
			row[bucketID] = true
		}
		for bucketID := range w.edit.Original[termID] {
			row[bucketID] = true
		}
		for bucketID := range row {
			current := form.TermBucketAmounts.Get(termID, bucketID)
			if !contains(form.SelectedBuckets, bucketID) {
				current = fee.Zero
			}
			if !current.Equal(w.edit.Original.Get(termID, bucketID)) {
				return true
			}
		}
	}
	return false
}

// LoadStructure loads a persisted structure for editing.
func (w *PerTermAmountWizard) LoadStructure(ctx context.Context, id string) error {
	fs, err := w.repo.GetFeeStructure(ctx, id)
	if err != nil {
		return errors.Wrap(err, "loading fee structure")
	}
	w.LoadProcessed(ProcessedStructure{
		Name:           fs.Name,
		AcademicYearID: fs.AcademicYear.ID,
		GradeLevelIDs:  refIDs(fs.GradeLevels),
		Structures:     []fee.FeeStructure{fs},
	})
	return nil
}

// LoadProcessed fills the matrix from each sibling's own items.
// When two siblings set the same term and bucket, the last one wins.
func (w *PerTermAmountWizard) LoadProcessed(ps ProcessedStructure) {
	form := PerTermForm{
		Name:              ps.Name,
		AcademicYearID:    ps.AcademicYearID,
		GradeLevelIDs:     append([]string(nil), ps.GradeLevelIDs...),
		TermBucketAmounts: fee.AmountMatrix{},
		OptionalBuckets:   map[string]bool{},
	}
	edit := &EditState{}
	for _, fs := range ps.Structures {
		edit.StructureIDs = append(edit.StructureIDs, fs.ID)
		if form.AcademicYearID == "" {
			form.AcademicYearID = fs.AcademicYear.ID
		}
		if len(form.GradeLevelIDs) == 0 {
			form.GradeLevelIDs = refIDs(fs.GradeLevels)
		}
		for _, t := range fs.Terms {
			if !contains(form.SelectedTermIDs, t.ID) {
				form.SelectedTermIDs = append(form.SelectedTermIDs, t.ID)
			}
		}
		for _, it := range fs.Items {
			bucketID := it.FeeBucket.ID
			if !contains(form.SelectedBuckets, bucketID) {
				form.SelectedBuckets = append(form.SelectedBuckets, bucketID)
			}
			form.OptionalBuckets[bucketID] = !it.IsMandatory
			for _, t := range fs.Terms {
				form.TermBucketAmounts = form.TermBucketAmounts.Set(t.ID, bucketID, it.Amount)
			}
		}
	}
	if len(ps.Structures) > 1 {
		form.Name = baseName(form.Name, ps.Structures)
	}
	edit.Name = form.Name
	edit.Original = form.TermBucketAmounts.Clone()
	edit.OriginalTerm = append([]string(nil), form.SelectedTermIDs...)

	w.form = form
	w.edit = edit
	w.step = StepSetup
}

// baseName drops the " - <term>" suffix per-term siblings carry.
func baseName(name string, siblings []fee.FeeStructure) string {
	if name == "" && len(siblings) > 0 {
		name = siblings[0].Name
	}
	for _, fs := range siblings {
		for _, t := range fs.Terms {
			if suffix := " - " + t.Name; strings.HasSuffix(name, suffix) {
				return strings.TrimSuffix(name, suffix)
			}
		}
	}
	return name
}

func refIDs(refs []fee.Ref) []string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	return ids
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !contains(b, v) {
			return false
		}
	}
	return true
}
