package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/miradorstack/mirador-shiftreport/internal/charts"
	"github.com/miradorstack/mirador-shiftreport/internal/engine"
	"github.com/miradorstack/mirador-shiftreport/internal/reports"
	"github.com/miradorstack/mirador-shiftreport/internal/repo"
	"github.com/miradorstack/mirador-shiftreport/internal/services"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := services.Options{
		Layout: reports.Layout{Organization: "PTO", Components: []string{"blc-be", "sbp-be"}, Critical: "sbp-be"},
		Areas: reports.OutputAreas{
			Title:      "Daily",
			ShiftDir:   filepath.Join(dir, "shift"),
			DailyDir:   filepath.Join(dir, "daily"),
			MonthlyDir: filepath.Join(dir, "monthly"),
		},
		RequiredShifts: 3,
		RangeMode:      engine.RangeIndependentFields,
	}
	gen := charts.NewGenerator(filepath.Join(dir, "charts"), charts.NewPlotRenderer(), charts.ZeroForNonNumeric)
	svc := services.NewReportService(logger, repo.NewMemoryStore(), gen, reports.NewPDFRenderer(""), nil, opts)
	return Wrap(NewRouter(logger, svc), []string{"*"}, logger)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func addDay(t *testing.T, h http.Handler, date string, cpus ...string) {
	t.Helper()
	for i, cpu := range cpus {
		body := `{"date":"` + date + `","shift":` + strconv.Itoa(i+1) +
			`,"cpu_usage":{"sbp-be":` + cpu + `,"blc-be":0.2},"memory_usage":{"sbp-be":256,"blc-be":128},` +
			`"application_availability":{"sbp-be":"100%","blc-be":"100%"}}`
		rec := do(t, h, http.MethodPost, "/add", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestHandler(t), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestAddAggregatesAfterThirdShift(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/get-daily-max/05-03-2025", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	addDay(t, h, "05-03-2025", "0.3", "0.5", `"down"`)

	rec = do(t, h, http.MethodGet, "/get-daily-max/05-03-2025", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var agg struct {
		Date     string         `json:"date"`
		CPUUsage map[string]any `json:"cpu_usage"`
	}
	decode(t, rec, &agg)
	assert.Equal(t, "05-03-2025", agg.Date)
	assert.Equal(t, "Down", agg.CPUUsage["sbp-be"])
	assert.Equal(t, 0.2, agg.CPUUsage["blc-be"])

	var shifts []map[string]any
	rec = do(t, h, http.MethodGet, "/get", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &shifts)
	assert.Len(t, shifts, 3)
}

func TestAddRejectsMalformedPayloads(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/add", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/add", `{"date":"2025-03-05","shift":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestListShiftsEmptyIsArray(t *testing.T) {
	rec := do(t, newTestHandler(t), http.MethodGet, "/get", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestShiftLifecycle(t *testing.T) {
	h := newTestHandler(t)
	addDay(t, h, "05-03-2025", "0.3")

	rec := do(t, h, http.MethodGet, "/get/05-03-2025/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/update/05-03-2025/1", `{"cpu_usage":{"sbp-be":0.9}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snap map[string]any
	rec = do(t, h, http.MethodGet, "/get/05-03-2025/1", "")
	decode(t, rec, &snap)
	assert.Equal(t, 0.9, snap["cpu_usage"].(map[string]any)["sbp-be"])

	rec = do(t, h, http.MethodPut, "/update/05-03-2025/1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/delete/05-03-2025/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/get/05-03-2025/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodDelete, "/delete/05-03-2025/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmptyCollectionsAreNotFound(t *testing.T) {
	h := newTestHandler(t)
	for _, path := range []string{"/get-daily-table", "/get-all-daily-max", "/get-all-monthly"} {
		rec := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestTableMonthlyAndUsage(t *testing.T) {
	h := newTestHandler(t)
	addDay(t, h, "05-02-2025", "0.3", "0.4", "0.1")
	addDay(t, h, "15-02-2025", "0.6", "0.2", "0.2")
	addDay(t, h, "03-03-2025", "0.7", "0.8", "0.9")

	rec := do(t, h, http.MethodGet, "/get-daily-table", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var table map[string][]map[string]any
	decode(t, rec, &table)
	require.Len(t, table["sbp-be"], 3)
	assert.Equal(t, "03-03-2025", table["sbp-be"][0]["date"])

	rec = do(t, h, http.MethodGet, "/get-all-monthly", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []map[string]any
	decode(t, rec, &groups)
	assert.Len(t, groups, 2)

	rec = do(t, h, http.MethodGet, "/usage?start_date=01-01-2025&end_date=10-03-2025&component=sbp-be", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var usage []map[string]any
	decode(t, rec, &usage)
	require.Len(t, usage, 2)
	assert.Equal(t, "03-03-2025", usage[0]["date"])
	assert.Equal(t, "05-02-2025", usage[1]["date"])
	assert.Equal(t, 0.4, usage[1]["cpu_usage"])

	rec = do(t, h, http.MethodGet, "/usage?start_date=01-01-2025&component=sbp-be", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/usage?start_date=2025-01-01&end_date=10-03-2025&component=sbp-be", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportsServePDFAttachments(t *testing.T) {
	h := newTestHandler(t)
	addDay(t, h, "05-03-2025", "0.3", "0.4", "0.1")

	cases := map[string]string{
		"/export-native-shift-pdf/05-03-2025/2":                 "Daily_05-03-2025_2.pdf",
		"/export-pdf/05-03-2025":                                "05-03-2025_daily_max_report.pdf",
		"/export-monthly-pdf/2025/3":                            "monthly_report_3_2025.pdf",
		"/export-monthly-pdf-with-charts-separate-pages/2025/3": "monthly_report_3_2025.pdf",
	}
	for path, file := range cases {
		rec := do(t, h, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", path, rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Disposition"), file, path)
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")), path)
	}
}

func TestExportMissingDataIsNotFound(t *testing.T) {
	h := newTestHandler(t)
	for _, path := range []string{
		"/export-native-shift-pdf/05-03-2025/1",
		"/export-pdf/05-03-2025",
		"/export-monthly-pdf/2025/3",
	} {
		rec := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodOptions, "/get", nil)
	req.Header.Set("Origin", "http://localhost:3039")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rec := httptest.NewRecorder()
	Wrap(panicking, []string{"*"}, logger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServerStartAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer("127.0.0.1:0", NewRouter(logger, nil), []string{"*"}, logger)
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- srv.Start() }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + srv.Address() + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"ok"`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	require.NoError(t, <-served)
}
