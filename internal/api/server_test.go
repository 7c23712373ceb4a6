package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vendor-kpi/internal/config"
	"github.com/sells-group/vendor-kpi/internal/ingest/ingesttest"
	"github.com/sells-group/vendor-kpi/internal/model"
	"github.com/sells-group/vendor-kpi/internal/pipeline"
	"github.com/sells-group/vendor-kpi/internal/scorer"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			MaxUploadMB: 4,
			RateLimit:   1000,
			RateBurst:   1000,
			CORSOrigins: []string{"*"},
		},
		Scoring: scorer.DefaultScoringConfig(),
		Report:  config.ReportConfig{CSVName: "vendor_kpi_report.csv", ChartWidth: 400, ChartHeight: 300},
	}
}

type testServer struct {
	*Server
	handler http.Handler
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	s := NewServer(cfg, pipeline.New(cfg.Scoring, nil), prometheus.NewRegistry())
	return &testServer{Server: s, handler: s.Handler()}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) metricsText(t *testing.T) string {
	t.Helper()
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func uploadRequest(t *testing.T, path string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(UploadField, "vendors.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, testConfig())
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_Propagated(t *testing.T) {
	ts := newTestServer(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "6f1c1a0e-4d7b-4a53-9a7c-1b2b7f1d0c11")
	rec := ts.do(req)
	assert.Equal(t, "6f1c1a0e-4d7b-4a53-9a7c-1b2b7f1d0c11", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "not a uuid\n")
	rec = ts.do(req)
	assert.NotEqual(t, "not a uuid\n", rec.Header().Get(RequestIDHeader))
}

func TestScore(t *testing.T) {
	ts := newTestServer(t, testConfig())
	rec := ts.do(uploadRequest(t, "/v1/score", ingesttest.Bytes(t, ingesttest.TwoVendors())))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var doc struct {
		RunID   string            `json:"run_id"`
		Vendors []model.VendorKPI `json:"vendors"`
		Summary map[string]string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.NotEmpty(t, doc.RunID)
	require.Len(t, doc.Vendors, 2)
	assert.Equal(t, "A", doc.Vendors[0].Vendor)
	assert.Greater(t, *doc.Vendors[0].VendorScore, *doc.Vendors[1].VendorScore)
	assert.Equal(t, "50.00%", doc.Summary["on_time_delivery"])

	out := ts.metricsText(t)
	assert.Contains(t, out, `vendor_kpi_runs_total{outcome="ok"} 1`)
	assert.Contains(t, out, "vendor_kpi_vendors_scored 2")
}

func TestScore_Malformed(t *testing.T) {
	sheets := ingesttest.TwoVendors()
	delete(sheets, "Returns")

	ts := newTestServer(t, testConfig())
	rec := ts.do(uploadRequest(t, "/v1/score", ingesttest.Bytes(t, sheets)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decodeError(t, rec)
	assert.True(t, strings.HasPrefix(resp.Error, "Error loading or processing data: "))
	assert.Contains(t, resp.Error, `"Returns"`)
	assert.Equal(t, rec.Header().Get(RequestIDHeader), resp.RequestID)
	assert.Contains(t, ts.metricsText(t), `vendor_kpi_runs_total{outcome="malformed"} 1`)
}

func TestScore_NotAWorkbook(t *testing.T) {
	ts := newTestServer(t, testConfig())
	rec := ts.do(uploadRequest(t, "/v1/score", []byte("Vendor,PO_ID\nA,1\n")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestScore_MissingField(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/v1/score", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	ts := newTestServer(t, testConfig())
	rec := ts.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, `missing "file" form field`)
}

func TestScore_NotMultipart(t *testing.T) {
	ts := newTestServer(t, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/v1/score", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := ts.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScore_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxUploadMB = 1
	ts := newTestServer(t, cfg)

	rec := ts.do(uploadRequest(t, "/v1/score", bytes.Repeat([]byte("x"), 2<<20)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestScoreCSV(t *testing.T) {
	ts := newTestServer(t, testConfig())
	rec := ts.do(uploadRequest(t, "/v1/score/csv", ingesttest.Bytes(t, ingesttest.TwoVendors())))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="vendor_kpi_report.csv"`, rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(model.Columns, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "A,100,100,0,2,1000,0,7,"))
	assert.True(t, strings.HasPrefix(lines[2], "B,0,0,100,1,500,3,10,"))
}

func TestChart(t *testing.T) {
	ts := newTestServer(t, testConfig())
	book := ingesttest.Bytes(t, ingesttest.TwoVendors())

	for _, path := range []string{"/v1/charts/leaderboard", "/v1/charts/radar?vendor=B", "/v1/charts/delay-trend"} {
		t.Run(path, func(t *testing.T) {
			rec := ts.do(uploadRequest(t, path, book))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

			cfg, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, 400, cfg.Width)
			assert.Equal(t, 300, cfg.Height)
		})
	}
}

func TestChart_NotFound(t *testing.T) {
	ts := newTestServer(t, testConfig())
	book := ingesttest.Bytes(t, ingesttest.TwoVendors())

	rec := ts.do(uploadRequest(t, "/v1/charts/pie", book))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(uploadRequest(t, "/v1/charts/radar?vendor=Nobody", book))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "Nobody")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = 0.001
	cfg.Server.RateBurst = 1
	ts := newTestServer(t, cfg)
	book := ingesttest.Bytes(t, ingesttest.TwoVendors())

	assert.Equal(t, http.StatusOK, ts.do(uploadRequest(t, "/v1/score", book)).Code)

	rec := ts.do(uploadRequest(t, "/v1/score", book))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// health and metrics are not limited
	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ts.do(uploadRequest(t, "/v1/score", ingesttest.Bytes(t, ingesttest.TwoVendors())))
	ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	out := ts.metricsText(t)
	assert.Contains(t, out, `vendor_kpi_runs_total{outcome="ok"} 1`)
	assert.Contains(t, out, `vendor_kpi_http_requests_total{method="POST",route="/v1/score",status="200"} 1`)
	assert.Contains(t, out, `vendor_kpi_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, out, "vendor_kpi_vendors_scored 2")
	assert.Contains(t, out, "vendor_kpi_run_duration_seconds_count 1")
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, testConfig())
	req := httptest.NewRequest(http.MethodOptions, "/v1/score", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := ts.do(req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
