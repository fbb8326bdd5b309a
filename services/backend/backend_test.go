package backend

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
	"github.com/trezcool/masomo-admin/core/fee"
	"github.com/trezcool/masomo-admin/core/staff"
	logsvc "github.com/trezcool/masomo-admin/services/logger"
)

type recorded struct {
	path    string
	auth    string
	query   string
	vars    map[string]interface{}
	rawBody []byte
}

// newTestClient serves every request with respond and records what was sent.
func newTestClient(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := ioutil.ReadAll(r.Body)
		rec := recorded{path: r.URL.Path, auth: r.Header.Get("Authorization"), rawBody: body}
		var gql gqlRequest
		if json.Unmarshal(body, &gql) == nil {
			rec.query, rec.vars = gql.Query, gql.Variables
		}
		calls = append(calls, rec)
		respond(w, r)
	}))
	t.Cleanup(srv.Close)

	conf := core.NewTestConfig()
	conf.Backend.GraphQLEndpoint = srv.URL + "/graphql"
	conf.Backend.BaseURL = srv.URL
	return NewClient(conf, logsvc.NewTestLogger()), &calls
}

func reply(status int, body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_Query(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  string
		wantUser string
	}{
		{name: "ok", status: 200, body: `{"data":{"feeBuckets":[{"id":"b1","name":"Tuition","isActive":true}]}}`},
		{
			name:     "errors with 200",
			status:   200,
			body:     `{"data":null,"errors":[{"message":"Fee structure name already exists","extensions":{"code":"BAD_USER_INPUT"}},{"message":"other"}]}`,
			wantErr:  "graphql: Fee structure name already exists (BAD_USER_INPUT)",
			wantUser: "Fee structure name already exists",
		},
		{
			name:     "non-2xx with envelope",
			status:   401,
			body:     `{"errors":[{"message":"Not authenticated"}]}`,
			wantErr:  "backend responded 401: Not authenticated",
			wantUser: "Not authenticated",
		},
		{
			name:     "non-2xx plain",
			status:   502,
			body:     `upstream unavailable`,
			wantErr:  "backend responded 502: upstream unavailable",
			wantUser: "upstream unavailable",
		},
		{
			name:     "non-2xx empty",
			status:   500,
			wantErr:  "backend responded 500: ",
			wantUser: "Internal Server Error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestClient(t, reply(tt.status, tt.body))
			ctx := WithToken(context.Background(), "tok3n")
			var data struct {
				FeeBuckets []fee.FeeBucket `json:"feeBuckets"`
			}
			err := client.Query(ctx, queryFeeBuckets, nil, &data)

			require.Len(t, *calls, 1)
			assert.Equal(t, "Bearer tok3n", (*calls)[0].auth)
			assert.Equal(t, "/graphql", (*calls)[0].path)
			if tt.wantErr == "" {
				require.NoError(t, err)
				require.Len(t, data.FeeBuckets, 1)
				assert.Equal(t, "Tuition", data.FeeBuckets[0].Name)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			assert.Equal(t, tt.wantUser, core.UserMessage(errors.Wrap(err, "saving")))
		})
	}
}

func TestClient_Query_cancelled(t *testing.T) {
	client, calls := newTestClient(t, reply(200, `{"data":{"feeBuckets":[]}}`))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Query(ctx, queryFeeBuckets, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), err.Error())
	assert.Empty(t, *calls)
}

func TestFeeRepository_CreateFeeStructure(t *testing.T) {
	client, calls := newTestClient(t, reply(200, `{"data":{"createFeeStructureWithItems":{
		"id":"fs1","name":"Grade 1 fees","isActive":true,
		"academicYear":{"id":"y1","name":"2025-2026"},
		"terms":[{"id":"t1","name":"Term 1"}],
		"gradeLevels":[{"id":"g1","name":"Grade 1"}],
		"items":[{"id":"i1","feeBucket":{"id":"b1","name":"Tuition"},"amount":10000.5,"isMandatory":true}]
	}}}`))
	repo := NewFeeRepository(client)

	fs, err := repo.CreateFeeStructure(context.Background(), fee.NewFeeStructure{
		Name:           "Grade 1 fees",
		AcademicYearID: "y1",
		GradeLevelIDs:  []string{"g1"},
		Items: []fee.AggregatedFeeItem{
			{FeeBucketID: "b1", Amount: fee.ParseAmount("10000.50"), IsMandatory: true, TermIDs: []string{"t1"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "fs1", fs.ID)
	assert.Equal(t, []string{"t1"}, fs.TermIDs())
	require.Len(t, fs.Items, 1)
	assert.Equal(t, "10000.5", fs.Items[0].Amount.String())

	require.Len(t, *calls, 1)
	assert.Contains(t, (*calls)[0].query, "createFeeStructureWithItems")
	assert.Contains(t, string((*calls)[0].rawBody), `"amount":10000.5,`, "amounts are sent as numbers")
	input := (*calls)[0].vars["input"].(map[string]interface{})
	assert.Equal(t, "y1", input["academicYearId"])
}

func TestFeeRepository_notFound(t *testing.T) {
	client, _ := newTestClient(t, reply(200, `{"data":{"feeStructure":null}}`))
	_, err := NewFeeRepository(client).GetFeeStructure(context.Background(), "nope")
	assert.Equal(t, fee.ErrStructureNotFound, err)

	client, _ = newTestClient(t, reply(200, `{"errors":[{"message":"Fee structure not found","extensions":{"code":"NOT_FOUND"}}]}`))
	err = NewFeeRepository(client).DeleteFeeStructure(context.Background(), "nope")
	assert.Equal(t, fee.ErrStructureNotFound, err)
}

func TestCalendarRepository(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case routeCreateAcademicYear:
			reply(201, `{"success":true,"data":{"id":"y1","name":"2025-2026","startDate":"2025-09-01T00:00:00.000Z","endDate":"2026-08-31"}}`)(w, r)
		case routeCreateTerm:
			reply(200, `{"id":"t1","name":"Term 1","startDate":"2025-09-01","endDate":"2025-12-30"}`)(w, r)
		default:
			reply(404, `{"message":"no such route"}`)(w, r)
		}
	})
	repo := NewCalendarRepository(client)
	ctx := context.Background()

	year, err := repo.CreateAcademicYear(ctx, calendar.NewAcademicYear{Name: "2025-2026", StartDate: "2025-09-01", EndDate: "2026-08-31"})
	require.NoError(t, err)
	assert.Equal(t, "y1", year.ID)
	assert.Equal(t, "2025-09-01", year.StartDate.String())

	term, err := repo.CreateTerm(ctx, year.ID, calendar.NewTerm{Name: "Term 1", StartDate: "2025-09-01", EndDate: "2025-12-30"})
	require.NoError(t, err)
	assert.Equal(t, "t1", term.ID)

	require.Len(t, *calls, 2)
	var sent map[string]string
	require.NoError(t, json.Unmarshal((*calls)[1].rawBody, &sent))
	assert.Equal(t, map[string]string{"academicYearId": "y1", "name": "Term 1", "startDate": "2025-09-01", "endDate": "2025-12-30"}, sent)
}

func TestClient_Post_failedEnvelope(t *testing.T) {
	client, _ := newTestClient(t, reply(200, `{"success":false,"message":"Term dates overlap with Term 1"}`))
	_, err := NewCalendarRepository(client).CreateTerm(context.Background(), "y1", calendar.NewTerm{Name: "Term 2"})
	require.Error(t, err)
	assert.Equal(t, "Term dates overlap with Term 1", core.UserMessage(err))
}

func TestStaffRepository(t *testing.T) {
	client, _ := newTestClient(t, reply(200, `{"data":{"staffMembers":[
		{"id":"s1","firstName":"Amani","lastName":"Otieno","email":"amani@school.ac","role":"teacher","hireDate":"2019-01-07","isActive":true}
	]}}`))
	repo := NewStaffRepository(client)

	s, err := repo.GetStaffByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Amani Otieno", s.FullName())
	assert.Equal(t, "2019-01-07", s.HireDate.String())

	_, err = repo.GetStaffByID(context.Background(), "s2")
	assert.Equal(t, staff.ErrNotFound, err)
}
