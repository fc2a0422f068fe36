package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/pulse/config"
	"github.com/spektr-org/pulse/engine"
)

// ============================================================================
// FIXTURES
// ============================================================================

const quarterCSV = `order_id,order_date,customer,product,revenue
1,2024-01-10,Acme,Widget,1000
2,2024-02-10,Beta,Widget,1200
3,2024-03-10,Acme,Gadget,600
`

type fakeNotifier struct {
	calls int
}

func (f *fakeNotifier) Enabled() bool { return true }

func (f *fakeNotifier) Notify(ctx context.Context, a *engine.Analysis) error {
	f.calls++
	return nil
}

type fakeNarrator struct {
	text string
	err  error
}

func (f fakeNarrator) Summarize(ctx context.Context, a *engine.Analysis) (string, error) {
	return f.text, f.err
}

func setupRouter(t *testing.T, opts ...Option) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Server.MaxSessions = 2
	srv := New(cfg, opts...)
	return srv, srv.Router()
}

func upload(t *testing.T, router *gin.Engine, filename, body string, filters ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range filters {
		require.NoError(t, mw.WriteField("filter", f))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func do(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := upload(t, router, "sales.csv", quarterCSV)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var sess Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	require.NotEmpty(t, sess.ID)
	return sess.ID
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}

// ============================================================================
// ROUTE TESTS
// ============================================================================

func TestCreateAndGetAnalysis(t *testing.T) {
	_, router := setupRouter(t)

	w := upload(t, router, "sales.csv", quarterCSV)
	require.Equal(t, http.StatusCreated, w.Code)

	var sess Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, "sales.csv", sess.Name)
	require.NotNil(t, sess.Analysis)
	assert.Equal(t, 3, sess.Analysis.RowCount)
	assert.InDelta(t, 2800, sess.Analysis.KPIs.TotalRevenue.Value, 1e-9)
	require.Len(t, sess.Analysis.Alerts, 1)

	w = do(router, http.MethodGet, "/api/v1/analyses/"+sess.ID)
	require.Equal(t, http.StatusOK, w.Code)
	var got Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, sess.ID, got.ID)
}

func TestCreateAnalysisErrors(t *testing.T) {
	_, router := setupRouter(t)

	w := upload(t, router, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrorCodeValidation, decodeError(t, w).Code)

	w = upload(t, router, "legacy.xls", "whatever")
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, ErrorCodeUnsupportedFormat, decodeError(t, w).Code)

	w = upload(t, router, "report.pdf", "%PDF")
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = upload(t, router, "empty.csv", "date,revenue\n")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, ErrorCodeEmptyTable, decodeError(t, w).Code)

	w = upload(t, router, "blank.csv", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetTables(t *testing.T) {
	_, router := setupRouter(t)
	id := createSession(t, router)

	for _, name := range engine.TableNames {
		w := do(router, http.MethodGet, "/api/v1/analyses/"+id+"/tables/"+name)
		require.Equal(t, http.StatusOK, w.Code, name)

		var td engine.TableData
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &td))
		assert.NotEmpty(t, td.Columns, name)
	}

	w := do(router, http.MethodGet, "/api/v1/analyses/"+id+"/tables/churn?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	var td engine.TableData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &td))
	assert.Len(t, td.Rows, 1)

	w = do(router, http.MethodGet, "/api/v1/analyses/"+id+"/tables/churn?limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/api/v1/analyses/"+id+"/tables/charts")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorCodeNotFound, decodeError(t, w).Code)
}

func TestGetCharts(t *testing.T) {
	_, router := setupRouter(t)
	id := createSession(t, router)

	w := do(router, http.MethodGet, "/api/v1/analyses/"+id+"/charts/revenue")
	require.Equal(t, http.StatusOK, w.Code)
	var chart engine.ChartConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	assert.Equal(t, "line", chart.ChartType)
	require.Len(t, chart.Series, 1)
	assert.Len(t, chart.Series[0].Data, 3)

	w = do(router, http.MethodGet, "/api/v1/analyses/"+id+"/charts/radar")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAnalysisWithFilter(t *testing.T) {
	_, router := setupRouter(t)

	w := upload(t, router, "sales.csv", quarterCSV, "customer=Acme")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sess Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, 2, sess.Analysis.RowCount)
	assert.InDelta(t, 1600, sess.Analysis.KPIs.TotalRevenue.Value, 1e-9)

	w = upload(t, router, "sales.csv", quarterCSV, "region=EU")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, router, "sales.csv", quarterCSV, "customer=Nobody")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreateAnalysisRejectsInvalidSettings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Engine.HighSeverityThreshold = 5
	router := New(cfg).Router()

	w := upload(t, router, "sales.csv", quarterCSV)
	require.Equal(t, http.StatusBadRequest, w.Code)
	apiErr := decodeError(t, w)
	assert.Equal(t, ErrorCodeValidation, apiErr.Code)
	assert.Equal(t, "invalid analysis settings", apiErr.Message)
}

func TestUnknownSession(t *testing.T) {
	_, router := setupRouter(t)

	for _, path := range []string{"/api/v1/analyses/nope", "/api/v1/analyses/nope/tables/kpis"} {
		w := do(router, http.MethodGet, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	w := do(router, http.MethodDelete, "/api/v1/analyses/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAnalysis(t *testing.T) {
	_, router := setupRouter(t)
	id := createSession(t, router)

	w := do(router, http.MethodDelete, "/api/v1/analyses/"+id)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodGet, "/api/v1/analyses/"+id)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSummary(t *testing.T) {
	_, router := setupRouter(t, WithNarrator(fakeNarrator{text: "Revenue halved in March."}))
	id := createSession(t, router)

	w := do(router, http.MethodPost, "/api/v1/analyses/"+id+"/summary")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Revenue halved in March.")

	w = do(router, http.MethodGet, "/api/v1/analyses/"+id)
	var sess Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, "Revenue halved in March.", sess.Summary)
}

func TestSummaryUnavailable(t *testing.T) {
	_, router := setupRouter(t)
	id := createSession(t, router)
	w := do(router, http.MethodPost, "/api/v1/analyses/"+id+"/summary")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	_, router = setupRouter(t, WithNarrator(fakeNarrator{err: errors.New("quota exceeded")}))
	id = createSession(t, router)
	w = do(router, http.MethodPost, "/api/v1/analyses/"+id+"/summary")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "quota exceeded")
}

func TestNotifyOnAlert(t *testing.T) {
	n := &fakeNotifier{}
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Server.NotifyOnAlert = true
	router := New(cfg, WithNotifier(n)).Router()

	createSession(t, router)
	assert.Equal(t, 1, n.calls)
}

func TestHealthAndStats(t *testing.T) {
	_, router := setupRouter(t)
	createSession(t, router)
	createSession(t, router)
	createSession(t, router)

	w := do(router, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":2}`, w.Body.String())

	w = do(router, http.MethodGet, "/api/v1/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Sessions int           `json:"sessions"`
		Latency  StatsSnapshot `json:"latency"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Sessions, "oldest session evicted")
	assert.Equal(t, int64(3), body.Latency.Count)
}
