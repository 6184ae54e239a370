package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/miradorstack/mirador-shiftreport/internal/models"
	"github.com/miradorstack/mirador-shiftreport/internal/utils"
)

// Reports is the service surface the HTTP API exposes.
type Reports interface {
	IngestShift(ctx context.Context, snapshot models.ShiftSnapshot) (models.IngestResult, error)
	GetShift(ctx context.Context, date string, shift int) (models.ShiftSnapshot, error)
	ListShifts(ctx context.Context) ([]models.ShiftSnapshot, error)
	UpdateShift(ctx context.Context, date string, shift int, patch models.ShiftPatch) error
	DeleteShift(ctx context.Context, date string, shift int) error
	DailyAggregate(ctx context.Context, date string) (models.DailyAggregate, error)
	ListAggregates(ctx context.Context) ([]models.DailyAggregate, error)
	DailyTable(ctx context.Context) (models.DailyTable, error)
	MonthlyGroups(ctx context.Context) ([]models.MonthlyGroup, error)
	ComponentUsage(ctx context.Context, start, end, component string) ([]models.UsageRangeEntry, error)
	ExportShiftReport(ctx context.Context, date string, shift int) (string, error)
	ExportDailyReport(ctx context.Context, date string) (string, error)
	ExportMonthlyReport(ctx context.Context, year, month int) (string, error)
}

type handler struct {
	logger  *slog.Logger
	reports Reports
}

// NewRouter registers the shift report routes.
func NewRouter(logger *slog.Logger, reports Reports) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{logger: logger, reports: reports}
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.HandleFunc("/add", h.addShift).Methods(http.MethodPost)
	r.HandleFunc("/get", h.listShifts).Methods(http.MethodGet)
	r.HandleFunc("/get/{date}/{shift:[0-9]+}", h.getShift).Methods(http.MethodGet)
	r.HandleFunc("/update/{date}/{shift:[0-9]+}", h.updateShift).Methods(http.MethodPut)
	r.HandleFunc("/delete/{date}/{shift:[0-9]+}", h.deleteShift).Methods(http.MethodDelete)
	r.HandleFunc("/get-daily-max/{date}", h.dailyMax).Methods(http.MethodGet)
	r.HandleFunc("/get-daily-table", h.dailyTable).Methods(http.MethodGet)
	r.HandleFunc("/get-all-daily-max", h.allDailyMax).Methods(http.MethodGet)
	r.HandleFunc("/get-all-monthly", h.allMonthly).Methods(http.MethodGet)
	r.HandleFunc("/usage", h.usage).Methods(http.MethodGet)
	r.HandleFunc("/export-native-shift-pdf/{date}/{shift:[0-9]+}", h.exportShift).Methods(http.MethodGet)
	r.HandleFunc("/export-pdf/{date}", h.exportDaily).Methods(http.MethodGet)
	r.HandleFunc("/export-monthly-pdf/{year:[0-9]+}/{month:[0-9]+}", h.exportMonthly).Methods(http.MethodGet)
	r.HandleFunc("/export-monthly-pdf-with-charts-separate-pages/{year:[0-9]+}/{month:[0-9]+}", h.exportMonthly).Methods(http.MethodGet)

	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) addShift(w http.ResponseWriter, r *http.Request) {
	var snap models.ShiftSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, utils.InvalidFormat("add shift", "invalid data provided", err))
		return
	}
	result, err := h.reports.IngestShift(r.Context(), snap)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Data inserted successfully!", "result": result})
}

func (h *handler) listShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.reports.ListShifts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if shifts == nil {
		shifts = []models.ShiftSnapshot{}
	}
	writeJSON(w, http.StatusOK, shifts)
}

func (h *handler) getShift(w http.ResponseWriter, r *http.Request) {
	date, shift := dateShift(r)
	snap, err := h.reports.GetShift(r.Context(), date, shift)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) updateShift(w http.ResponseWriter, r *http.Request) {
	date, shift := dateShift(r)
	var patch models.ShiftPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, utils.InvalidFormat("update shift", "invalid data provided", err))
		return
	}
	if err := h.reports.UpdateShift(r.Context(), date, shift, patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Data updated successfully!"})
}

func (h *handler) deleteShift(w http.ResponseWriter, r *http.Request) {
	date, shift := dateShift(r)
	if err := h.reports.DeleteShift(r.Context(), date, shift); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Data deleted successfully!"})
}

func (h *handler) dailyMax(w http.ResponseWriter, r *http.Request) {
	agg, err := h.reports.DailyAggregate(r.Context(), mux.Vars(r)["date"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

func (h *handler) dailyTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.reports.DailyTable(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if len(table) == 0 {
		writeError(w, utils.NotFound("daily table", "no daily metrics data available"))
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *handler) allDailyMax(w http.ResponseWriter, r *http.Request) {
	aggs, err := h.reports.ListAggregates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if len(aggs) == 0 {
		writeError(w, utils.NotFound("list aggregates", "no daily aggregates available"))
		return
	}
	writeJSON(w, http.StatusOK, aggs)
}

func (h *handler) allMonthly(w http.ResponseWriter, r *http.Request) {
	groups, err := h.reports.MonthlyGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if len(groups) == 0 {
		writeError(w, utils.NotFound("monthly groups", "no monthly data available"))
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *handler) usage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, component := q.Get("start_date"), q.Get("end_date"), q.Get("component")
	if start == "" || end == "" || component == "" {
		writeError(w, utils.InvalidFormat("component usage", "missing required query parameters: start_date, end_date, or component", nil))
		return
	}
	usage, err := h.reports.ComponentUsage(r.Context(), start, end, component)
	if err != nil {
		writeError(w, err)
		return
	}
	if usage == nil {
		usage = []models.UsageRangeEntry{}
	}
	writeJSON(w, http.StatusOK, usage)
}

func (h *handler) exportShift(w http.ResponseWriter, r *http.Request) {
	date, shift := dateShift(r)
	path, err := h.reports.ExportShiftReport(r.Context(), date, shift)
	h.sendFile(w, r, path, err)
}

func (h *handler) exportDaily(w http.ResponseWriter, r *http.Request) {
	path, err := h.reports.ExportDailyReport(r.Context(), mux.Vars(r)["date"])
	h.sendFile(w, r, path, err)
}

func (h *handler) exportMonthly(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, _ := strconv.Atoi(vars["year"])
	month, _ := strconv.Atoi(vars["month"])
	path, err := h.reports.ExportMonthlyReport(r.Context(), year, month)
	h.sendFile(w, r, path, err)
}

func (h *handler) sendFile(w http.ResponseWriter, r *http.Request, path string, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}

// dateShift reads the path parameters; the route pattern guarantees shift is numeric.
func dateShift(r *http.Request) (string, int) {
	vars := mux.Vars(r)
	shift, _ := strconv.Atoi(vars["shift"])
	return vars["date"], shift
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, utils.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, utils.ErrInvalidFormat):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
