package echoapi

import (
	"bytes"
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
	"github.com/trezcool/masomo-admin/core/fee"
	"github.com/trezcool/masomo-admin/core/fee/document"
	"github.com/trezcool/masomo-admin/core/feewizard"
)

type (
	feeApi struct {
		svc        *fee.Service
		years      calendar.Repository
		mailSvc    core.EmailService
		conf       *core.Config
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger
	}

	TermTotals struct {
		Term      string     `json:"term"`
		Total     fee.Amount `json:"total"`
		Mandatory fee.Amount `json:"mandatory"`
	}

	Totals struct {
		Terms      []TermTotals `json:"terms"`
		GrandTotal fee.Amount   `json:"grandTotal"`
	}

	DraftResponse struct {
		Draft  fee.Draft `json:"draft"`
		Totals Totals    `json:"totals"`
	}

	PreviewResponse struct {
		Document document.Document `json:"document"`
		Totals   Totals            `json:"totals"`
	}

	StepResponse struct {
		Step     int                  `json:"step"`
		Steps    []string             `json:"steps"`
		Valid    bool                 `json:"valid"`
		Payload  *fee.NewFeeStructure `json:"payload,omitempty"`
		Warnings []string             `json:"warnings,omitempty"`
	}

	EditResponse struct {
		Form  feewizard.PerTermForm `json:"form"`
		Edit  *feewizard.EditState  `json:"edit"`
		Steps []string              `json:"steps"`
	}
)

func registerFeeAPI(g *echo.Group, deps ServerDeps) {
	api := feeApi{
		svc:        deps.FeeSvc,
		years:      deps.CalendarRepo,
		mailSvc:    deps.MailSvc,
		conf:       deps.Conf,
		validate:   deps.Validate,
		translator: deps.Translator,
		logger:     deps.Logger,
	}
	writers := rolesMiddleware(writerRoles...)

	fsg := g.Group("/fee-structures")
	fsg.GET("", api.queryStructures)
	fsg.POST("/drafts", api.newDraft)
	fsg.POST("/drafts/apply", api.applyActions)
	fsg.POST("/preview", api.preview)
	fsg.POST("/document", api.document)
	fsg.POST("/document/email", api.emailDocument)
	fsg.POST("/uniform/validate", api.validateUniform)
	fsg.POST("/uniform", api.saveUniform, writers)
	fsg.POST("/per-term", api.savePerTerm, writers)
	fsg.GET("/:id/edit", api.editStructure)
	fsg.DELETE("/:id", api.destroyStructure, writers)

	fbg := g.Group("/fee-buckets")
	fbg.GET("", api.queryBuckets)
	fbg.POST("", api.createBucket, writers)
	fbg.PUT("/:id", api.updateBucket, writers)
	fbg.DELETE("/:id", api.destroyBucket, writers)
}

func computeTotals(terms []fee.TermStructure) Totals {
	totals := Totals{Terms: make([]TermTotals, 0, len(terms)), GrandTotal: fee.GrandTotal(terms)}
	for _, t := range terms {
		totals.Terms = append(totals.Terms, TermTotals{Term: t.Term, Total: fee.TermTotal(t), Mandatory: fee.MandatoryTotal(t)})
	}
	return totals
}

func (api *feeApi) referenceData(ctx echo.Context) (feewizard.ReferenceData, error) {
	ref, err := feewizard.LoadReferenceData(ctx.Request().Context(), api.years, api.svc.Repo(), ctx.QueryParam("schoolType"))
	return ref, errors.Wrap(err, "loading reference data")
}

func (api *feeApi) uniformWizard(ctx echo.Context, draft fee.Draft) (*feewizard.UniformAmountWizard, error) {
	ref, err := api.referenceData(ctx)
	if err != nil {
		return nil, err
	}
	w := feewizard.NewUniformAmountWizard(api.svc.Repo(), ref, api.validate, api.translator, api.logger)
	w.SetDraft(draft)
	return w, nil
}

// Handlers

func (api *feeApi) newDraft(ctx echo.Context) error {
	buckets, err := api.svc.Buckets(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying fee buckets")
	}
	draft := fee.NewDraft(buckets)
	return ctx.JSON(http.StatusCreated, DraftResponse{Draft: draft, Totals: computeTotals(draft.Form.TermStructures)})
}

func (api *feeApi) applyActions(ctx echo.Context) error {
	var data ApplyRequest
	if err := bindJSON(ctx, &data, "ApplyRequest"); err != nil {
		return err
	}

	draft := data.Draft
	for i, action := range data.Actions {
		d, err := fee.Apply(draft, action)
		if err != nil {
			return errors.Wrapf(err, "actions[%d]", i)
		}
		draft = d
	}
	return ctx.JSON(http.StatusOK, DraftResponse{Draft: draft, Totals: computeTotals(draft.Form.TermStructures)})
}

func (api *feeApi) catalog(ctx echo.Context, catalog []fee.FeeBucket) ([]fee.FeeBucket, error) {
	if len(catalog) > 0 {
		return catalog, nil
	}
	buckets, err := api.svc.Buckets(ctx.Request().Context())
	return buckets, errors.Wrap(err, "querying fee buckets")
}

func (api *feeApi) preview(ctx echo.Context) error {
	var data DocumentRequest
	if err := bindJSON(ctx, &data, "DocumentRequest"); err != nil {
		return err
	}
	catalog, err := api.catalog(ctx, data.Catalog)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, PreviewResponse{
		Document: document.Render(data.Form, catalog),
		Totals:   computeTotals(data.Form.TermStructures),
	})
}

func (api *feeApi) document(ctx echo.Context) error {
	var data DocumentRequest
	if err := bindJSON(ctx, &data, "DocumentRequest"); err != nil {
		return err
	}
	catalog, err := api.catalog(ctx, data.Catalog)
	if err != nil {
		return err
	}
	doc := document.Render(data.Form, catalog)

	var buf bytes.Buffer
	switch format := strings.ToLower(ctx.QueryParam("format")); format {
	case "", "html":
		if err := document.WriteHTML(&buf, doc); err != nil {
			return err
		}
		return ctx.HTMLBlob(http.StatusOK, buf.Bytes())
	case "text", "txt":
		if err := document.WriteText(&buf, doc); err != nil {
			return err
		}
		return ctx.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, buf.Bytes())
	default:
		return core.NewValidationError(nil, core.FieldError{Field: "format", Error: "format must be html or text"})
	}
}

func (api *feeApi) emailDocument(ctx echo.Context) error {
	var data EmailDocumentRequest
	if err := bindJSON(ctx, &data, "EmailDocumentRequest"); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	catalog, err := api.catalog(ctx, data.Catalog)
	if err != nil {
		return err
	}

	msg, err := document.NewEmailMessage(document.Render(data.Form, catalog), data.addresses(), data.Note)
	if err != nil {
		return errors.Wrap(err, "building email")
	}
	if err := msg.Render(api.conf); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	api.mailSvc.SendMessages(msg)
	return ctx.JSON(http.StatusAccepted, echo.Map{"success": "The fee structure will be emailed shortly."})
}

func (api *feeApi) validateUniform(ctx echo.Context) error {
	var data DraftRequest
	if err := bindJSON(ctx, &data, "DraftRequest"); err != nil {
		return err
	}
	w, err := api.uniformWizard(ctx, data.Draft)
	if err != nil {
		return err
	}
	step := data.Step
	if step == 0 {
		step = feewizard.StepReview
	}
	if err := w.Validate(step); err != nil {
		return err
	}

	resp := StepResponse{Step: step, Steps: w.Steps(), Valid: true}
	if step == feewizard.StepReview {
		payload, warnings, err := w.Payload()
		if err != nil {
			return err
		}
		resp.Payload, resp.Warnings = &payload, warnings
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *feeApi) saveUniform(ctx echo.Context) error {
	var data DraftRequest
	if err := bindJSON(ctx, &data, "DraftRequest"); err != nil {
		return err
	}
	w, err := api.uniformWizard(ctx, data.Draft)
	if err != nil {
		return err
	}
	report, err := w.Save(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "saving fee structure")
	}
	return ctx.JSON(http.StatusCreated, report)
}

func (api *feeApi) perTermWizard(ctx echo.Context) (*feewizard.PerTermAmountWizard, error) {
	ref, err := api.referenceData(ctx)
	if err != nil {
		return nil, err
	}
	return feewizard.NewPerTermAmountWizard(api.svc.Repo(), ref, api.validate, api.translator, api.logger), nil
}

func (api *feeApi) savePerTerm(ctx echo.Context) error {
	var data PerTermRequest
	if err := bindJSON(ctx, &data, "PerTermRequest"); err != nil {
		return err
	}
	w, err := api.perTermWizard(ctx)
	if err != nil {
		return err
	}
	w.Resume(data.Form, data.Edit)

	report, err := w.Save(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "saving fee structures")
	}
	code := http.StatusCreated
	if len(report.Structures) == 0 {
		code = http.StatusOK
	}
	return ctx.JSON(code, report)
}

// editStructure loads a structure, and its per-term siblings (?siblings=id1,id2), for editing.
func (api *feeApi) editStructure(ctx echo.Context) error {
	w, err := api.perTermWizard(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	siblings := splitParam(ctx, "siblings")
	if len(siblings) == 0 {
		if err := w.LoadStructure(reqCtx, ctx.Param("id")); err != nil {
			return err
		}
	} else {
		ids := append([]string{ctx.Param("id")}, siblings...)
		ps := feewizard.ProcessedStructure{Structures: make([]fee.FeeStructure, 0, len(ids))}
		for _, id := range ids {
			fs, err := api.svc.Structure(reqCtx, id)
			if err != nil {
				return errors.Wrap(err, "loading fee structure")
			}
			ps.Structures = append(ps.Structures, fs)
		}
		w.LoadProcessed(ps)
	}
	return ctx.JSON(http.StatusOK, EditResponse{Form: w.Form(), Edit: w.Edit(), Steps: w.Steps()})
}

func (api *feeApi) queryStructures(ctx echo.Context) error {
	structures, err := api.svc.Structures(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying fee structures")
	}
	if yearID := ctx.QueryParam("academicYearId"); yearID != "" {
		filtered := structures[:0]
		for _, fs := range structures {
			if fs.AcademicYear.ID == yearID {
				filtered = append(filtered, fs)
			}
		}
		structures = filtered
	}
	return ctx.JSON(http.StatusOK, structures)
}

func (api *feeApi) destroyStructure(ctx echo.Context) error {
	if err := api.svc.DeleteStructure(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *feeApi) queryBuckets(ctx echo.Context) error {
	buckets, err := api.svc.Buckets(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying fee buckets")
	}
	return ctx.JSON(http.StatusOK, buckets)
}

func (api *feeApi) createBucket(ctx echo.Context) error {
	var data fee.NewFeeBucket
	if err := bindJSON(ctx, &data, "NewFeeBucket"); err != nil {
		return err
	}
	fb, err := api.svc.CreateBucket(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, fb)
}

func (api *feeApi) updateBucket(ctx echo.Context) error {
	var data fee.UpdateFeeBucket
	if err := bindJSON(ctx, &data, "UpdateFeeBucket"); err != nil {
		return err
	}
	fb, err := api.svc.UpdateBucket(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, fb)
}

func (api *feeApi) destroyBucket(ctx echo.Context) error {
	if err := api.svc.DeleteBucket(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
