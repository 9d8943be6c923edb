package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"prosorter/domain/entities"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// operatorHeader carries the authenticated operator's name. Authentication
// itself happens at the kiosk frontend; the core only records who acted.
const operatorHeader = "X-Operator"

func actorFrom(r *http.Request) string {
	if actor := strings.TrimSpace(r.Header.Get(operatorHeader)); actor != "" {
		return actor
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps domain sentinel errors to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrConflictRetryExhausted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, entities.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, entities.ErrKeyNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrDeviceUnreachable):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, entities.ErrChannelUnconfigured):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// logActivity appends a shell-level audit entry. Best-effort: failures are
// logged and never fail the request that triggered them.
func (s *Server) logActivity(r *http.Request, action entities.ActivityAction, details map[string]any) {
	entry := &entities.ActivityEntry{
		Actor:     actorFrom(r),
		Action:    action,
		Timestamp: time.Now(),
		Details:   details,
	}
	if _, err := s.activities.Append(r.Context(), entry); err != nil {
		log.WithError(err).WithField("action", action).Warn("failed to record activity")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- coin ledger ---

func (s *Server) handleGetCoins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.GetSnapshot())
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req entities.WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snapshot, withdrawn, err := s.ledger.CommitWithdrawal(r.Context(), actorFrom(r), req)
	if err != nil {
		if errors.Is(err, entities.ErrStorageUnavailable) || errors.Is(err, entities.ErrConflictRetryExhausted) {
			writeServiceError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"coins":           snapshot,
		"withdrawn_value": withdrawn,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.ledger.CommitReset(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// --- fingerprint enrollment ---

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	fingerID, err := s.ledger.NextEnrollmentID(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// The ID is consumed even when the device declines: enrollment can be
	// retried on the device with the same ID, and IDs are never reused.
	if err := s.device.Enroll(r.Context(), fingerID); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"finger_id": fingerID,
			"error":     err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"finger_id": fingerID})
}

// --- audit trail ---

func (s *Server) handleQueryActivities(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	activities, err := s.activities.Query(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if activities == nil {
		activities = []*entities.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, activities)
}

func filterFromQuery(r *http.Request) (entities.ActivityFilter, error) {
	q := r.URL.Query()
	filter := entities.ActivityFilter{
		Actor:      q.Get("actor"),
		Action:     entities.ActivityAction(q.Get("action")),
		SearchText: q.Get("search"),
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, fmt.Errorf("invalid limit %q", raw)
		}
		filter.Limit = limit
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid from timestamp %q", raw)
		}
		filter.From = from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid to timestamp %q", raw)
		}
		filter.To = to
	}
	return filter, nil
}

type appendActivityRequest struct {
	Action  entities.ActivityAction `json:"action"`
	Details map[string]any          `json:"details,omitempty"`
}

// handleAppendActivity records frontend session events (logins, logouts,
// failed attempts). Authentication lives in the kiosk frontend, so these
// arrive from outside the core.
func (s *Server) handleAppendActivity(w http.ResponseWriter, r *http.Request) {
	var req appendActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}

	entry := &entities.ActivityEntry{
		Actor:     actorFrom(r),
		Action:    req.Action,
		Timestamp: time.Now(),
		Details:   req.Details,
	}
	id, err := s.activities.Append(r.Context(), entry)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleClearActivities(w http.ResponseWriter, r *http.Request) {
	removed, err := s.activities.Clear(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.logActivity(r, entities.ActionActivitiesCleared, map[string]any{"removed": removed})
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (s *Server) handleExportActivities(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	activities, err := s.activities.Query(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="activities.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "actor", "action", "timestamp", "details"})
	for _, entry := range activities {
		details := ""
		if entry.Details != nil {
			if raw, err := json.Marshal(entry.Details); err == nil {
				details = string(raw)
			}
		}
		_ = cw.Write([]string{
			strconv.FormatInt(entry.ID, 10),
			entry.Actor,
			string(entry.Action),
			entry.Timestamp.Format(time.RFC3339),
			details,
		})
	}
	cw.Flush()
}

// --- notifications ---

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.notifier.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings entities.AlertSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.notifier.UpdateSettings(r.Context(), settings); err != nil {
		if errors.Is(err, entities.ErrStorageUnavailable) {
			writeServiceError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logActivity(r, entities.ActionSettingsChange, nil)
	writeJSON(w, http.StatusOK, s.notifier.Settings())
}

type testChannelRequest struct {
	Channel entities.ChannelKind `json:"channel"`
	Target  string               `json:"target"`
}

func (s *Server) handleTestChannel(w http.ResponseWriter, r *http.Request) {
	var req testChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Target == "" {
		writeError(w, http.StatusBadRequest, "target is required")
		return
	}

	if err := s.notifier.TestChannel(r.Context(), req.Channel, req.Target); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// --- reports ---

func (s *Server) windowFor(kind string, now time.Time) (entities.ReportWindow, error) {
	switch kind {
	case "daily":
		return s.reports.Daily(now), nil
	case "weekly":
		return s.reports.Weekly(now), nil
	case "monthly":
		return s.reports.Monthly(now), nil
	default:
		return entities.ReportWindow{}, fmt.Errorf("unknown report kind %q", kind)
	}
}

func (s *Server) buildReport(r *http.Request, window entities.ReportWindow) (*entities.Report, error) {
	activities, err := s.activities.Query(r.Context(), entities.ActivityFilter{
		From: window.Start,
		To:   window.End,
	})
	if err != nil {
		return nil, err
	}
	return s.reports.BuildReport(activities, s.ledger.GetSnapshot(), window), nil
}

// handleCustomReport builds a report over a caller-supplied half-open
// window [from, to).
func (s *Server) handleCustomReport(w http.ResponseWriter, r *http.Request) {
	window, err := customWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.buildReport(r, window)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func customWindow(r *http.Request) (entities.ReportWindow, error) {
	q := r.URL.Query()
	from, err := time.Parse(time.RFC3339, q.Get("from"))
	if err != nil {
		return entities.ReportWindow{}, fmt.Errorf("invalid from timestamp %q", q.Get("from"))
	}
	to, err := time.Parse(time.RFC3339, q.Get("to"))
	if err != nil {
		return entities.ReportWindow{}, fmt.Errorf("invalid to timestamp %q", q.Get("to"))
	}
	if !from.Before(to) {
		return entities.ReportWindow{}, fmt.Errorf("window start must precede its end")
	}
	return entities.ReportWindow{Start: from, End: to}, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	window, err := s.windowFor(mux.Vars(r)["kind"], time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.buildReport(r, window)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type exportReportRequest struct {
	Kind   string                `json:"kind"`
	Format entities.ReportFormat `json:"format"`
	From   *time.Time            `json:"from,omitempty"`
	To     *time.Time            `json:"to,omitempty"`
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	var req exportReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Format == "" {
		req.Format = entities.FormatSpreadsheet
	}

	var window entities.ReportWindow
	if req.Kind == "custom" {
		if req.From == nil || req.To == nil || !req.From.Before(*req.To) {
			writeError(w, http.StatusBadRequest, "custom exports need a from/to window")
			return
		}
		window = entities.ReportWindow{Start: *req.From, End: *req.To}
	} else {
		var err error
		window, err = s.windowFor(req.Kind, time.Now())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	report, err := s.buildReport(r, window)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	data, err := s.reports.Render(report, req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name, err := s.sink.Save(req.Kind, req.Format, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logActivity(r, entities.ActionReportExport, map[string]any{
		"file":   name,
		"kind":   req.Kind,
		"format": string(req.Format),
	})
	writeJSON(w, http.StatusCreated, map[string]string{"file": name})
}

func (s *Server) handleListReportFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.sink.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleDownloadReportFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	data, err := s.sink.Read(name)
	if err != nil {
		if errors.Is(err, entities.ErrKeyNotFound) {
			writeError(w, http.StatusNotFound, "report file not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if strings.HasSuffix(name, ".pdf") {
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(data)
}

func (s *Server) handleDeleteReportFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.sink.Delete(name); err != nil {
		if errors.Is(err, entities.ErrKeyNotFound) {
			writeError(w, http.StatusNotFound, "report file not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logActivity(r, entities.ActionReportDelete, map[string]any{"file": name})
	writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
}
