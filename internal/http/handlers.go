package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"salesdash/internal/core"
	"salesdash/internal/log"
	"salesdash/internal/report"
	"salesdash/internal/services"
	"salesdash/internal/session"
	"salesdash/internal/storage"
)

// pageData is what index.html and the dashboard partial render.
type pageData struct {
	report.View
	HasData   bool
	Error     string
	MaxUpload int64
	ExportCSV template.URL
	ExportPDF template.URL
}

func (s *Server) newPage(v report.View) pageData {
	if v.Title == "" {
		v.Title = report.Title
	}
	pdf := "format=pdf"
	if v.ExportQuery != "" {
		pdf = v.ExportQuery + "&" + pdf
	}
	return pageData{
		View:      v,
		HasData:   v.Source != "",
		MaxUpload: s.maxUpload,
		ExportCSV: template.URL("/export?" + v.ExportQuery),
		ExportPDF: template.URL("/export?" + pdf),
	}
}

func (s *Server) renderHTML(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// writePage renders a template with status and optional htmx triggers.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, name string, data pageData) {
	body, err := s.renderHTML(name, data)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template render failed",
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
		InternalServerError("Failed to render page").Write(w)
		return
	}
	resp.BodyHTML(string(body)).Write(w)
}

// handleIndex renders the full dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	sid := s.sessions.Ensure(w, r)
	page, status := s.dashboardPage(r, sid, s.selection(r))
	s.writePage(w, r, NewHTMXResponse().Status(status), "index.html", page)
}

// handleDashboardPartial renders the swappable part of the page for the
// current filters.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	sid := s.sessions.Ensure(w, r)
	page, status := s.dashboardPage(r, sid, s.selection(r))
	s.writePage(w, r, NewHTMXResponse().Status(status), "dashboard", page)
}

// dashboardPage builds the page for sid. When no dataset can be loaded the
// page still renders, with the error visible and the upload form usable.
func (s *Server) dashboardPage(r *http.Request, sid string, sel core.FilterSelection) (pageData, int) {
	ctx := r.Context()
	v, err := s.svc.View(ctx, sid, sel)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Dashboard dataset unavailable",
			log.FieldSessionID, sid,
			log.FieldOperation, log.OpFilter,
			log.FieldErrorType, loadErrorType(err),
			log.FieldError, err)
		page := s.newPage(report.View{UsingDefault: true, Selection: sel, Currency: s.svc.CurrencySymbol()})
		page.Error = loadErrorMessage(err)
		return page, http.StatusServiceUnavailable
	}
	return s.newPage(v), http.StatusOK
}

// handleUpload loads a CSV into the caller's session. htmx requests get
// the refreshed dashboard partial, or an error fragment retargeted at the
// upload status area. Plain form posts redirect back to the page.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx)
	sid := s.sessions.Ensure(w, r)

	up, err := ParseUpload(w, r, s.maxUpload)
	if err != nil {
		var upErr *UploadError
		if !errors.As(err, &upErr) {
			upErr = &UploadError{Status: http.StatusBadRequest, Message: err.Error()}
		}
		logger.WarnContext(ctx, "Upload rejected",
			log.FieldSessionID, sid,
			log.FieldOperation, log.OpUpload,
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldError, upErr.Message)
		s.uploadFailed(w, r, sid, upErr.Status, upErr.Message)
		return
	}
	defer up.File.Close()

	ds, err := s.svc.Upload(ctx, sid, up.File, up.Name)
	if err != nil {
		logger.WarnContext(ctx, "Upload failed to load",
			log.FieldSessionID, sid,
			log.FieldSource, up.Name,
			log.FieldOperation, log.OpUpload,
			log.FieldErrorType, loadErrorType(err),
			log.FieldError, err)
		s.uploadFailed(w, r, sid, loadErrorStatus(err), loadErrorMessage(err))
		return
	}

	logger.InfoContext(ctx, "Dataset uploaded",
		log.FieldSessionID, sid,
		log.FieldSource, ds.Source,
		log.FieldRows, ds.Len(),
		log.FieldBytes, up.Size,
		log.FieldOperation, log.OpUpload)

	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	page, status := s.dashboardPage(r, sid, core.FilterSelection{})
	resp := NewHTMXResponse().
		Status(status).
		TriggerDatasetLoaded(ds.Source, ds.Len()).
		TriggerSuccessNotification(fmt.Sprintf("Loaded %d %s from %s", ds.Len(), plural(ds.Len(), "row", "rows"), ds.Source))
	s.writePage(w, r, resp, "dashboard", page)
}

// uploadFailed shows message where the user will see it. The session keeps
// whatever dataset it had.
func (s *Server) uploadFailed(w http.ResponseWriter, r *http.Request, sid string, status int, message string) {
	if isHTMX(r) {
		ErrorResponse(status, message).
			Retarget(targetUploadStatus).
			TriggerErrorNotification(message).
			Write(w)
		return
	}
	page, _ := s.dashboardPage(r, sid, core.FilterSelection{})
	page.Error = message
	s.writePage(w, r, NewHTMXResponse().Status(status), "index.html", page)
}

// handleReset drops the session's upload so the default dataset applies.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	sid := session.ID(r)
	if sid != "" {
		s.svc.Reset(sid)
		log.FromContext(r.Context()).InfoContext(r.Context(), "Upload cleared", log.FieldSessionID, sid)
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	page, status := s.dashboardPage(r, sid, core.FilterSelection{})
	resp := NewHTMXResponse().
		Status(status).
		TriggerDatasetReset().
		TriggerNotification(NotificationInfo, "Showing the default dataset", 3000)
	s.writePage(w, r, resp, "dashboard", page)
}

// handleExport downloads the filtered rows as CSV, or a PDF summary with
// format=pdf.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentExport)
	sid := session.ID(r)
	sel := s.selection(r)

	var (
		buf         bytes.Buffer
		filename    string
		contentType string
		rows        int
	)
	switch r.URL.Query().Get("format") {
	case "", "csv":
		ds, filtered, err := s.svc.Filtered(ctx, sid, sel)
		if err != nil {
			s.exportFailed(w, r, err)
			return
		}
		if err := report.WriteCSV(&buf, ds.Header, filtered); err != nil {
			s.exportFailed(w, r, err)
			return
		}
		filename, contentType, rows = report.ExportFilename, report.ExportContentType, len(filtered)
	case "pdf":
		v, err := s.svc.View(ctx, sid, sel)
		if err != nil {
			s.exportFailed(w, r, err)
			return
		}
		if err := report.WritePDF(&buf, v, time.Now()); err != nil {
			s.exportFailed(w, r, err)
			return
		}
		filename, contentType, rows = report.ExportPDFFilename, "application/pdf", v.Summary.FilteredRows
	default:
		BadRequestError("Unknown export format").Write(w)
		return
	}

	logger.InfoContext(ctx, "Export served",
		log.FieldSessionID, sid,
		log.FieldRows, rows,
		log.FieldBytes, buf.Len(),
		log.FieldOperation, log.OpExport)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) exportFailed(w http.ResponseWriter, r *http.Request, err error) {
	log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Export failed", err,
		log.ComponentExport, log.OpExport,
		log.NewFields().WithErrorType(loadErrorType(err)))
	ErrorResponse(loadErrorStatus(err), loadErrorMessage(err)).Write(w)
}

// handleCharts returns both chart specs for the current filters.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	v, ok := s.jsonView(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v.Charts)
}

type aggregatesJSON struct {
	TotalSales  float64 `json:"total_sales"`
	TotalOrders int64   `json:"total_orders"`
	TotalProfit float64 `json:"total_profit"`
}

type categoryJSON struct {
	Category string  `json:"category"`
	Sales    float64 `json:"sales"`
}

type summaryResponse struct {
	Source       string               `json:"source"`
	UsingDefault bool                 `json:"using_default"`
	Selection    core.FilterSelection `json:"selection"`
	Full         aggregatesJSON       `json:"full"`
	Filtered     aggregatesJSON       `json:"filtered"`
	FullRows     int                  `json:"full_rows"`
	FilteredRows int                  `json:"filtered_rows"`
	KPIs         []report.KPI         `json:"kpis"`
	ByCategory   []categoryJSON       `json:"by_category"`
}

func toAggregatesJSON(a core.Aggregates) aggregatesJSON {
	return aggregatesJSON{TotalSales: a.TotalSales, TotalOrders: a.TotalOrders, TotalProfit: a.TotalProfit}
}

// handleSummary returns full and filtered totals for the current filters.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	v, ok := s.jsonView(w, r)
	if !ok {
		return
	}

	cats := make([]categoryJSON, 0, len(v.ByCategory))
	for _, c := range v.ByCategory {
		cats = append(cats, categoryJSON{Category: c.Name, Sales: c.Sales})
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Source:       v.Source,
		UsingDefault: v.UsingDefault,
		Selection:    v.Selection,
		Full:         toAggregatesJSON(v.Summary.Full),
		Filtered:     toAggregatesJSON(v.Summary.Filtered),
		FullRows:     v.Summary.FullRows,
		FilteredRows: v.Summary.FilteredRows,
		KPIs:         v.KPIs,
		ByCategory:   cats,
	})
}

// jsonView builds the view for an API request, writing a JSON error when
// no dataset is available.
func (s *Server) jsonView(w http.ResponseWriter, r *http.Request) (report.View, bool) {
	ctx := r.Context()
	v, err := s.svc.View(ctx, session.ID(r), s.selection(r))
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "API dataset unavailable",
			log.FieldErrorType, loadErrorType(err),
			log.FieldError, err)
		writeJSONError(w, loadErrorStatus(err), loadErrorType(err), loadErrorMessage(err))
		return report.View{}, false
	}
	return v, true
}

type loadJSON struct {
	ID       int64     `json:"id"`
	Hash     string    `json:"hash"`
	Source   string    `json:"source"`
	Origin   string    `json:"origin"`
	Rows     int       `json:"rows"`
	CacheHit bool      `json:"cache_hit"`
	LoadedAt time.Time `json:"loaded_at"`
}

func toLoadJSON(rec storage.LoadRecord) loadJSON {
	return loadJSON{
		ID:       rec.ID,
		Hash:     rec.Hash,
		Source:   rec.Source,
		Origin:   rec.Origin,
		Rows:     rec.Rows,
		CacheHit: rec.CacheHit,
		LoadedAt: rec.LoadedAt,
	}
}

// handleLoads lists recent dataset loads, newest first.
func (s *Server) handleLoads(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	loads, err := s.svc.RecentLoads(ctx, ParseLimit(r.URL.Query(), 20, 200))
	if errors.Is(err, services.ErrNoHistory) {
		writeJSONError(w, http.StatusNotFound, log.ErrorTypeConfiguration, err.Error())
		return
	}
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to list loads",
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldError, err)
		writeJSONError(w, http.StatusInternalServerError, log.ErrorTypeDatabase, "failed to list loads")
		return
	}

	out := make([]loadJSON, 0, len(loads))
	for _, rec := range loads {
		out = append(out, toLoadJSON(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"loads": out})
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.svc.Ready(ctx); err != nil {
		checks["default_dataset"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["default_dataset"] = "ok"
	}

	stats := s.svc.LoaderStats()
	checks["loader"] = map[string]any{
		"entries": stats.Entries,
		"hits":    stats.Hits,
		"misses":  stats.Misses,
	}
	checks["sessions"] = map[string]any{"active": s.sessions.Len()}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"rejected":       s.limiter.GetMetrics().Rejected,
	}
	checks["requests"] = s.tracer.GetMetrics().TotalRequests
	checks["suspicious_requests"] = s.detector.GetMetrics().SuspiciousRequests

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// selection parses the filters of r and flags query keys naming no known
// dimension. They are ignored rather than rejected.
func (s *Server) selection(r *http.Request) core.FilterSelection {
	q := r.URL.Query()
	if unknown := UnknownFilters(q); len(unknown) > 0 {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Ignoring unknown filter dimensions",
			log.FieldOperation, log.OpFilter,
			"dimensions", unknown)
	}
	return ParseSelection(q)
}
