package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
	"github.com/trezcool/masomo-admin/core/fee"
	"github.com/trezcool/masomo-admin/core/feewizard"
	"github.com/trezcool/masomo-admin/core/staff"
	emailsvc "github.com/trezcool/masomo-admin/services/email"
	logsvc "github.com/trezcool/masomo-admin/services/logger"
	memdb "github.com/trezcool/masomo-admin/storage/memory"
)

type testApp struct {
	server *Server
	conf   *core.Config
	ref    feewizard.ReferenceData
	admin  string // token
	reader string // token
}

func setup(t *testing.T) *testApp {
	t.Helper()
	conf := core.NewTestConfig()
	logger := logsvc.NewTestLogger()

	db := memdb.Open()
	require.NoError(t, memdb.Seed(context.Background(), db))
	feeRepo := memdb.NewFeeRepository(db)
	calRepo := memdb.NewCalendarRepository(db)

	validate, translator := core.NewValidate()
	fee.InitValidators(validate, translator)
	calendar.InitValidators(validate, translator)
	staff.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:         conf,
		Logger:       logger,
		Validate:     validate,
		Translator:   translator,
		FeeSvc:       fee.NewService(feeRepo, validate, logger),
		CalendarRepo: calRepo,
		StaffSvc:     staff.NewService(memdb.NewStaffRepository(db), validate, logger),
		MailSvc:      emailsvc.NewConsoleServiceMock(conf, logger),
	})

	ref, err := feewizard.LoadReferenceData(context.Background(), calRepo, feeRepo, "")
	require.NoError(t, err)

	return &testApp{
		server: server,
		conf:   conf,
		ref:    ref,
		admin:  getToken(t, conf, staff.RoleAdministrator),
		reader: getToken(t, conf, staff.RoleTeacher),
	}
}

func getToken(t *testing.T, conf *core.Config, roles ...string) string {
	claims := NewClaims(conf, core.Actor{ID: "u1", Username: "jdoe", SchoolID: "school-1"}, roles...)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (app *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (app *testApp) bucket(name string) fee.FeeBucket {
	for _, b := range app.ref.FeeBuckets {
		if b.Name == name {
			return b
		}
	}
	return fee.FeeBucket{}
}

func (app *testApp) year() calendar.AcademicYear { return app.ref.Years[0] }

func (app *testApp) uniformDraft(termName string, buckets ...fee.Bucket) fee.Draft {
	d := fee.NewDraft(app.ref.FeeBuckets)
	d.Form.Name = "Grade 1 fees"
	d.Form.AcademicYear = app.year().Name
	d.Form.GradeLevelIDs = []string{"grade-1"}
	d.Form.TermStructures[0].Term = termName
	d.Form.TermStructures[0].Buckets = buckets
	return d
}

func TestAuth(t *testing.T) {
	app := setup(t)

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
	}{
		{"home", http.MethodGet, "/", "", http.StatusOK},
		{"missing token", http.MethodGet, "/v1/fee-buckets", "", http.StatusUnauthorized},
		{"invalid token", http.MethodGet, "/v1/fee-buckets", "not.a.token", http.StatusUnauthorized},
		{"reader can list", http.MethodGet, "/v1/fee-buckets", app.reader, http.StatusOK},
		{"reader cannot write", http.MethodPost, "/v1/fee-buckets", app.reader, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.path, tt.token, fee.NewFeeBucket{Name: "Library"})
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestReference(t *testing.T) {
	app := setup(t)

	rec := app.do(t, http.MethodGet, "/v1/reference?schoolType=primary", app.reader, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ReferenceResponse
	decode(t, rec, &resp)
	assert.Len(t, resp.Years, 1)
	assert.Len(t, resp.FeeBuckets, 4)
	assert.Len(t, resp.GradeLevels, 3)
	assert.Equal(t, fee.BoardingTypes, resp.BoardingTypes)
	assert.Len(t, resp.TermTemplates, 3)
}

func TestFeeBuckets(t *testing.T) {
	app := setup(t)

	rec := app.do(t, http.MethodPost, "/v1/fee-buckets", app.admin, fee.NewFeeBucket{Name: " tuition "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"name":"a fee bucket with this name already exists"}`, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/v1/fee-buckets", app.admin, fee.NewFeeBucket{Name: "Library", Description: "Books"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var fb fee.FeeBucket
	decode(t, rec, &fb)
	assert.Equal(t, "Library", fb.Name)

	rec = app.do(t, http.MethodPut, "/v1/fee-buckets/"+fb.ID, app.admin, fee.UpdateFeeBucket{Name: "Library fund"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &fb)
	assert.Equal(t, "Library fund", fb.Name)

	rec = app.do(t, http.MethodDelete, "/v1/fee-buckets/"+fb.ID, app.admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(t, http.MethodDelete, "/v1/fee-buckets/"+fb.ID, app.admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDrafts(t *testing.T) {
	app := setup(t)

	rec := app.do(t, http.MethodPost, "/v1/fee-structures/drafts", app.reader, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp DraftResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Draft.Form.TermStructures, 1)
	assert.Len(t, resp.Draft.Catalog, 4)

	tuition := app.bucket("Tuition")
	rec = app.do(t, http.MethodPost, "/v1/fee-structures/drafts/apply", app.reader, ApplyRequest{
		Draft: resp.Draft,
		Actions: []fee.Action{
			{Type: fee.ActionAddTerm},
			{Type: fee.ActionAddExistingBucket, TermIndex: 1, BucketID: tuition.ID},
			{Type: fee.ActionSetExistingBucketAmount, TermIndex: 1, BucketID: tuition.ID, Value: "1200.50"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &resp)
	require.Len(t, resp.Draft.Form.TermStructures, 2)
	assert.Equal(t, "1200.5", resp.Totals.GrandTotal.String())
	assert.Equal(t, "1200.5", resp.Totals.Terms[1].Mandatory.String())

	rec = app.do(t, http.MethodPost, "/v1/fee-structures/drafts/apply", app.reader, ApplyRequest{
		Draft:   resp.Draft,
		Actions: []fee.Action{{Type: fee.ActionRemoveBucket, TermIndex: 5}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "index out of range")
}

func TestUniform(t *testing.T) {
	app := setup(t)
	tuition := app.bucket("Tuition")
	paid := fee.Bucket{ID: tuition.ID, Name: "Tuition", Components: []fee.Component{{Name: "Tuition", Amount: fee.NewAmount(15000)}}}
	placeholder := fee.Bucket{Name: "Trip", Components: []fee.Component{{Name: "Bus", Amount: fee.NewAmount(800)}}}

	t.Run("unknown term", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/fee-structures/uniform/validate", app.reader,
			DraftRequest{Draft: app.uniformDraft("Term 11", paid), Step: feewizard.StepTermsSetup})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var errs map[string]string
		decode(t, rec, &errs)
		assert.Contains(t, errs["termStructures[0].term"], "does not exist")
	})

	t.Run("review", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/fee-structures/uniform/validate", app.reader,
			DraftRequest{Draft: app.uniformDraft("Term 1", paid, placeholder)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp StepResponse
		decode(t, rec, &resp)
		assert.True(t, resp.Valid)
		require.NotNil(t, resp.Payload)
		require.Len(t, resp.Payload.Items, 1)
		require.Len(t, resp.Warnings, 1)
		assert.Contains(t, resp.Warnings[0], `"Trip"`)
	})

	t.Run("no valid buckets", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/fee-structures/uniform", app.admin,
			DraftRequest{Draft: app.uniformDraft("Term 1", placeholder)})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"error":"No valid fee buckets found"}`, rec.Body.String())
	})

	t.Run("save", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/fee-structures/uniform", app.admin,
			DraftRequest{Draft: app.uniformDraft("term 1", paid)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var report feewizard.SaveReport
		decode(t, rec, &report)
		require.Len(t, report.Structures, 1)
		fs := report.Structures[0]
		assert.Equal(t, "Grade 1 fees", fs.Name)
		require.Len(t, fs.Items, 1)
		assert.Equal(t, "15000", fs.Items[0].Amount.String())
		assert.Equal(t, []string{app.year().Terms[0].ID}, fs.TermIDs())

		rec = app.do(t, http.MethodGet, "/v1/fee-structures?academicYearId="+app.year().ID, app.reader, nil)
		var list []fee.FeeStructure
		decode(t, rec, &list)
		assert.Len(t, list, 1)

		rec = app.do(t, http.MethodDelete, "/v1/fee-structures/"+fs.ID, app.admin, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = app.do(t, http.MethodGet, "/v1/fee-structures/"+fs.ID+"/edit", app.reader, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPerTerm(t *testing.T) {
	app := setup(t)
	year := app.year()
	t1, t2 := year.Terms[0].ID, year.Terms[1].ID
	tuition, meals := app.bucket("Tuition").ID, app.bucket("Meals").ID

	form := feewizard.PerTermForm{
		Name:            "Annual",
		AcademicYearID:  year.ID,
		GradeLevelIDs:   []string{"grade-2"},
		SelectedTermIDs: []string{t1, t2},
		SelectedBuckets: []string{tuition, meals},
		TermBucketAmounts: fee.AmountMatrix{
			t1: {tuition: fee.NewAmount(12000), meals: fee.NewAmount(3000)},
			t2: {tuition: fee.NewAmount(10000), meals: fee.NewAmount(3000)},
		},
		OptionalBuckets: map[string]bool{meals: true},
	}

	rec := app.do(t, http.MethodPost, "/v1/fee-structures/per-term", app.admin, PerTermRequest{Form: form})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var report feewizard.SaveReport
	decode(t, rec, &report)
	require.Len(t, report.Structures, 2)
	assert.Equal(t, "Annual - Term 1", report.Structures[0].Name)
	assert.Equal(t, "Annual - Term 2", report.Structures[1].Name)
	first, second := report.Structures[0].ID, report.Structures[1].ID

	rec = app.do(t, http.MethodGet, "/v1/fee-structures/"+first+"/edit?siblings="+second, app.reader, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var edit EditResponse
	decode(t, rec, &edit)
	assert.Equal(t, "Annual", edit.Form.Name)
	assert.Equal(t, []string{t1, t2}, edit.Form.SelectedTermIDs)
	assert.True(t, edit.Form.OptionalBuckets[meals])
	require.NotNil(t, edit.Edit)
	assert.Equal(t, []string{first, second}, edit.Edit.StructureIDs)

	// same amounts for every term now: one structure replaces both siblings
	edit.Form.TermBucketAmounts = edit.Form.TermBucketAmounts.Set(t2, tuition, fee.NewAmount(12000))
	rec = app.do(t, http.MethodPost, "/v1/fee-structures/per-term", app.admin, PerTermRequest{Form: edit.Form, Edit: edit.Edit})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	report = feewizard.SaveReport{}
	decode(t, rec, &report)
	require.Len(t, report.Structures, 1)
	assert.Equal(t, "Annual", report.Structures[0].Name)
	assert.ElementsMatch(t, []string{first, second}, report.Deleted)

	rec = app.do(t, http.MethodGet, "/v1/fee-structures", app.reader, nil)
	var list []fee.FeeStructure
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, report.Structures[0].ID, list[0].ID)

	t.Run("edit of an unrelated structure", func(t *testing.T) {
		other := form
		other.Name = "Boarding"
		rec := app.do(t, http.MethodPost, "/v1/fee-structures/per-term", app.admin, PerTermRequest{Form: other})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var created feewizard.SaveReport
		decode(t, rec, &created)
		require.NotEmpty(t, created.Structures)

		edit := &feewizard.EditState{Name: "Annual", StructureIDs: []string{created.Structures[0].ID}}
		rec = app.do(t, http.MethodPost, "/v1/fee-structures/per-term", app.admin, PerTermRequest{Form: form, Edit: edit})
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "edit.structureIds[0]")

		rec = app.do(t, http.MethodGet, "/v1/fee-structures/"+created.Structures[0].ID+"/edit", app.reader, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid", func(t *testing.T) {
		bad := form
		bad.SelectedBuckets = []string{"nope"}
		rec := app.do(t, http.MethodPost, "/v1/fee-structures/per-term", app.admin, PerTermRequest{Form: bad})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "selectedBuckets[0]")
	})
}

func TestDocument(t *testing.T) {
	app := setup(t)
	tuition := app.bucket("Tuition")
	form := app.uniformDraft("Term 1", fee.Bucket{ID: tuition.ID, Name: "Tuition", Components: []fee.Component{
		{Name: "Tuition", Amount: fee.NewAmount(15000)},
	}}).Form
	form.TermStructures[0].ExistingBucketAmounts = map[string]fee.Amount{app.bucket("Meals").ID: fee.NewAmount(2500)}

	rec := app.do(t, http.MethodPost, "/v1/fee-structures/preview", app.reader, DocumentRequest{Form: form})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var preview PreviewResponse
	decode(t, rec, &preview)
	assert.Equal(t, "17500", preview.Totals.GrandTotal.String())
	assert.True(t, preview.Document.GrandTotal.Equal(preview.Totals.GrandTotal))
	require.Len(t, preview.Document.Sections, 1)
	rows := preview.Document.Sections[0].Rows
	require.Len(t, rows, 4)
	assert.Equal(t, "Meals", rows[2].Label)
	assert.Equal(t, "Total Term 1", rows[3].Label)

	rec = app.do(t, http.MethodPost, "/v1/fee-structures/document?format=text", app.reader, DocumentRequest{Form: form})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "17,500.00")

	rec = app.do(t, http.MethodPost, "/v1/fee-structures/document", app.reader, DocumentRequest{Form: form})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))

	rec = app.do(t, http.MethodPost, "/v1/fee-structures/document?format=pdf", app.reader, DocumentRequest{Form: form})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	t.Run("email", func(t *testing.T) {
		emailsvc.ResetSentMessages()
		rec := app.do(t, http.MethodPost, "/v1/fee-structures/document/email", app.reader, EmailDocumentRequest{
			DocumentRequest: DocumentRequest{Form: form},
			To:              []Recipient{{Email: "not-an-email"}},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = app.do(t, http.MethodPost, "/v1/fee-structures/document/email", app.reader, EmailDocumentRequest{
			DocumentRequest: DocumentRequest{Form: form},
			To:              []Recipient{{Name: "Parent", Email: "Parent@Example.com"}},
		})
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
		require.Len(t, emailsvc.SentMessages, 1)
		sent := emailsvc.SentMessages[0]
		assert.Equal(t, "parent@example.com", sent.To[0].Address)
		assert.Contains(t, sent.TextContent, "Grand total: 17,500.00")
		assert.Len(t, sent.Attachments, 1)
	})
}

func TestCalendars(t *testing.T) {
	app := setup(t)

	rec := app.do(t, http.MethodGet, "/v1/calendars/defaults?name=2026-2027&template=2", app.reader, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var defaults YearDefaults
	decode(t, rec, &defaults)
	assert.Equal(t, "2026-09-01", defaults.StartDate.String())
	assert.Equal(t, "2027-08-31", defaults.EndDate.String())
	assert.Len(t, defaults.Terms, 2)

	rec = app.do(t, http.MethodGet, "/v1/calendars/defaults?name=2026", app.reader, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/calendars", app.admin, CalendarRequest{
		Year:     calendar.NewAcademicYear{Name: "2026-2027"},
		Template: "2 Terms",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var summary calendar.Summary
	decode(t, rec, &summary)
	assert.Equal(t, 364, summary.DurationDays)
	assert.Len(t, summary.Terms, 2)
	assert.Equal(t, "Academic year 2026-2027 created (364 days duration) with 2 term(s)", summary.Message)

	rec = app.do(t, http.MethodPost, "/v1/calendars", app.admin, CalendarRequest{
		Year: calendar.NewAcademicYear{Name: "2027-2028", StartDate: "2027-09-01", EndDate: "2028-08-31"},
		Terms: []calendar.NewTerm{
			{Name: "Term 1", StartDate: "2027-09-01", EndDate: "2027-12-31"},
			{},
			{Name: "Term 2", StartDate: "2027-12-01", EndDate: "2028-03-31"},
		},
	})
	require.Equal(t, http.StatusMultiStatus, rec.Code, rec.Body.String())
	var partial struct {
		Summary calendar.Summary `json:"summary"`
		Error   string           `json:"error"`
	}
	decode(t, rec, &partial)
	assert.Len(t, partial.Summary.Terms, 1)
	require.Len(t, partial.Summary.Failures, 1)
	assert.Equal(t, 2, partial.Summary.Failures[0].Index)
	assert.Contains(t, partial.Error, "overlap with Term 1")

	rec = app.do(t, http.MethodPost, "/v1/calendars", app.admin, CalendarRequest{
		Year: calendar.NewAcademicYear{Name: "2028-2029", StartDate: "2029-08-31", EndDate: "2028-09-01"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"endDate":"End date must be after start date"}`, rec.Body.String())
}

func TestStaff(t *testing.T) {
	app := setup(t)

	tests := []struct {
		name      string
		query     string
		wantNames []string
	}{
		{"default ordering", "", []string{"Kamau", "Mwangi", "Otieno"}},
		{"by role", "?role=teacher,accountant", []string{"Kamau", "Mwangi"}},
		{"search", "?search=wanjiru", []string{"Mwangi"}},
		{"hired since", "?hired_from=2019-01-01&ordering=-hire_date", []string{"Kamau", "Mwangi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodGet, "/v1/staff"+tt.query, app.reader, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var members []staff.Staff
			decode(t, rec, &members)
			names := make([]string, 0, len(members))
			for _, m := range members {
				names = append(names, m.LastName)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}

	rec := app.do(t, http.MethodGet, "/v1/staff?is_active=maybe", app.reader, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/staff/nope", app.reader, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ns := staff.NewStaff{FirstName: "Zawadi", LastName: "Njeri", Email: "amani.otieno@masomo.ac", Role: staff.RoleLibrarian, HireDate: "2020-02-03"}
	rec = app.do(t, http.MethodPost, "/v1/staff", app.admin, ns)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email"`)

	ns.Email = "zawadi@masomo.ac"
	rec = app.do(t, http.MethodPost, "/v1/staff", app.reader, ns)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/staff", app.admin, ns)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created staff.Staff
	decode(t, rec, &created)
	assert.Equal(t, staff.EmploymentFullTime, created.EmploymentType)

	rec = app.do(t, http.MethodGet, "/v1/staff/"+created.ID, app.reader, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
