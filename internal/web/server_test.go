package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/detailflow/internal/config"
	"github.com/JonMunkholm/detailflow/internal/core"
	_ "github.com/JonMunkholm/detailflow/internal/core/kinds"
	"github.com/JonMunkholm/detailflow/internal/csvimport"
	"github.com/JonMunkholm/detailflow/internal/store"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customersCSV = "Customer Name,Email,Phone\nJane Doe,jane@example.com,555-0100\nJohn Roe,,555-0101\n"

type countingSink struct{ rows int }

func (c *countingSink) Import(_ context.Context, _ store.Target, _, _ uuid.UUID, records []csvimport.Record) (int64, error) {
	c.rows += len(records)
	return int64(len(records)), nil
}

func testConfig(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()
	env := map[string]string{"DATABASE_URL": "postgres://localhost/detailflow"}
	for k, v := range vars {
		env[k] = v
	}
	cfg, err := config.LoadFrom(func(k string) string { return env[k] })
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, vars map[string]string) (*Server, *countingSink) {
	t.Helper()
	sink := &countingSink{}
	svc := core.NewService(sink, nil, nil, nil, core.Options{})
	return NewServer(svc, testConfig(t, vars), prometheus.NewRegistry()), sink
}

func do(t *testing.T, s *Server, method, path string, body *bytes.Buffer, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, s *Server, business, kind, csv string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "clients.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return do(t, s, http.MethodPost, "/api/imports/"+kind, &buf, map[string]string{
		"Content-Type":  mw.FormDataContentType(),
		"X-Business-ID": business,
	})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestListKinds(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/api/kinds", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	kinds := decode[[]kindResponse](t, rec)
	require.Len(t, kinds, 3)
	assert.Equal(t, "customers", kinds[0].Key)
	assert.NotEmpty(t, kinds[0].Fields)
}

func TestImportFlow(t *testing.T) {
	s, sink := newTestServer(t, nil)
	business := uuid.NewString()
	hdr := map[string]string{"X-Business-ID": business}

	rec := upload(t, s, business, "customers", customersCSV)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[core.SessionView](t, rec)
	assert.Equal(t, csvimport.StateMapping, view.State)
	assert.True(t, view.Ready)
	assert.Equal(t, 2, view.RowCount)

	base := "/api/imports/" + view.ID.String()

	rec = do(t, s, http.MethodPut, base+"/mapping", bytes.NewBufferString(`{"header":"Phone","field":null}`), hdr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decode[core.SessionView](t, rec)
	assert.False(t, view.Mappings[2].Mapped)

	rec = do(t, s, http.MethodGet, base+"/preview?limit=1", nil, hdr)
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode[core.Preview](t, rec)
	assert.Equal(t, 2, preview.Total)
	assert.Equal(t, []csvimport.Record{{"name": "Jane Doe", "email": "jane@example.com"}}, preview.Records)

	rec = do(t, s, http.MethodPost, base+"/commit", nil, hdr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decode[core.SessionView](t, rec)
	assert.Equal(t, csvimport.StateDone, view.State)
	require.NotNil(t, view.Result)
	assert.Equal(t, 2, view.Result.Success)
	assert.Equal(t, 2, sink.rows)

	rec = do(t, s, http.MethodPost, base+"/commit", nil, hdr)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodDelete, base, nil, hdr)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, base, nil, hdr)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SES001", decode[ErrorResponse](t, rec).Code)
}

func TestImportErrors(t *testing.T) {
	s, _ := newTestServer(t, nil)
	business := uuid.NewString()

	tests := []struct {
		name     string
		rec      func() *httptest.ResponseRecorder
		wantCode int
		wantErr  string
	}{
		{
			name:     "unknown kind",
			rec:      func() *httptest.ResponseRecorder { return upload(t, s, business, "vehicles", customersCSV) },
			wantCode: http.StatusNotFound,
			wantErr:  "IMP004",
		},
		{
			name:     "empty file",
			rec:      func() *httptest.ResponseRecorder { return upload(t, s, business, "customers", "Name\n") },
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE002",
		},
		{
			name:     "missing business",
			rec:      func() *httptest.ResponseRecorder { return upload(t, s, "", "customers", customersCSV) },
			wantCode: http.StatusBadRequest,
			wantErr:  "REQ003",
		},
		{
			name: "no file field",
			rec: func() *httptest.ResponseRecorder {
				var buf bytes.Buffer
				mw := multipart.NewWriter(&buf)
				_ = mw.WriteField("note", "hello")
				_ = mw.Close()
				return do(t, s, http.MethodPost, "/api/imports/customers", &buf, map[string]string{
					"Content-Type":  mw.FormDataContentType(),
					"X-Business-ID": business,
				})
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE003",
		},
		{
			name: "bad session id",
			rec: func() *httptest.ResponseRecorder {
				return do(t, s, http.MethodGet, "/api/imports/not-a-uuid", nil, map[string]string{"X-Business-ID": business})
			},
			wantCode: http.StatusNotFound,
			wantErr:  "SES001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec()
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantErr, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestCommitNotReady(t *testing.T) {
	s, sink := newTestServer(t, nil)
	business := uuid.NewString()
	hdr := map[string]string{"X-Business-ID": business}

	rec := upload(t, s, business, "customers", "Email\njane@example.com\n")
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decode[core.SessionView](t, rec)
	assert.Equal(t, []string{"Name"}, view.Missing)

	rec = do(t, s, http.MethodPost, "/api/imports/"+view.ID.String()+"/commit", nil, hdr)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "MAP001", decode[ErrorResponse](t, rec).Code)
	assert.Equal(t, 0, sink.rows)
}

func TestUpdateMapping_BadBody(t *testing.T) {
	s, _ := newTestServer(t, nil)
	business := uuid.NewString()
	hdr := map[string]string{"X-Business-ID": business}

	view := decode[core.SessionView](t, upload(t, s, business, "customers", customersCSV))
	path := "/api/imports/" + view.ID.String() + "/mapping"

	rec := do(t, s, http.MethodPut, path, bytes.NewBufferString(`{"column":"x"}`), hdr)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "REQ004", decode[ErrorResponse](t, rec).Code)

	rec = do(t, s, http.MethodPut, path, bytes.NewBufferString(`{"header":"Phone","field":"vin"}`), hdr)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MAP002", decode[ErrorResponse](t, rec).Code)
}

func TestSessionsHiddenFromOtherBusinesses(t *testing.T) {
	s, _ := newTestServer(t, nil)
	view := decode[core.SessionView](t, upload(t, s, uuid.NewString(), "customers", customersCSV))

	rec := do(t, s, http.MethodGet, "/api/imports/"+view.ID.String(), nil, map[string]string{"X-Business-ID": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistory_NoStore(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/api/history/customers", nil, map[string]string{"X-Business-ID": uuid.NewString()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestAPIKeyRequired(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{"REQUIRE_API_KEY": "true", "API_KEYS": "secret"})

	rec := do(t, s, http.MethodGet, "/api/kinds", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/kinds", nil, map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "health checks bypass auth")
}

func TestUploadRateLimit(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{"RATE_LIMIT_UPLOAD": "1"})
	business := uuid.NewString()

	assert.Equal(t, http.StatusCreated, upload(t, s, business, "customers", customersCSV).Code)
	rec := upload(t, s, business, "customers", customersCSV)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decode[ErrorResponse](t, rec).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrSessionNotFound, http.StatusNotFound},
		{csvimport.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{csvimport.ErrNotReady, http.StatusUnprocessableEntity},
		{csvimport.ErrSessionBusy, http.StatusConflict},
		{core.ErrTooManyImports, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errMissingBusiness, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
