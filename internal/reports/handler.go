package reports

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/incident-report-ai/internal/tenancy"
	"github.com/wolfman30/incident-report-ai/pkg/logging"
)

const maxBodyBytes = 256 << 10

// Handler handles HTTP requests for reports
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a reports HTTP handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the report endpoints. Callers must run auth middleware that
// sets org and user on the request context. generateMW wraps only the routes
// that call the model.
func (h *Handler) Routes(r chi.Router, generateMW ...func(http.Handler) http.Handler) {
	r.Get("/offenses", h.ListOffenses)
	r.Route("/reports", func(r chi.Router) {
		r.With(generateMW...).Post("/generate", h.Generate)
		r.Get("/", h.List)
		r.Get("/{reportID}", h.Get)
		r.Route("/sessions/{sessionKey}", func(r chi.Router) {
			r.Get("/", h.Session)
			r.Delete("/", h.Abandon)
			r.With(generateMW...).Post("/fields", h.ProvideFields)
		})
	})
}

// Generate handles POST /reports/generate
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := identity(w, r)
	if !ok {
		return
	}
	var in GenerateInput
	if !decode(w, r, &in) {
		return
	}
	in.OrgID, in.UserID = orgID, userID

	out, err := h.svc.Generate(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if out.Status == StatusComplete {
		status = http.StatusCreated
	}
	writeJSON(w, status, out)
}

// ProvideFields handles POST /reports/sessions/{sessionKey}/fields
func (h *Handler) ProvideFields(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := identity(w, r)
	if !ok {
		return
	}
	var in ProvideInput
	if !decode(w, r, &in) {
		return
	}
	in.OrgID, in.UserID = orgID, userID
	in.SessionKey = chi.URLParam(r, "sessionKey")

	out, err := h.svc.ProvideFields(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if out.Status == StatusComplete {
		status = http.StatusCreated
	}
	writeJSON(w, status, out)
}

// Session handles GET /reports/sessions/{sessionKey}
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := identity(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Session(r.Context(), userID, chi.URLParam(r, "sessionKey"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Abandon handles DELETE /reports/sessions/{sessionKey}
func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.svc.Abandon(r.Context(), userID, chi.URLParam(r, "sessionKey")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListReportsResponse is the response for listing reports
type ListReportsResponse struct {
	Reports []*Report `json:"reports"`
	Count   int       `json:"count"`
	Offset  int       `json:"offset"`
	Limit   int       `json:"limit"`
}

// List handles GET /reports
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := identity(w, r)
	if !ok {
		return
	}

	filter := ListFilter{Limit: 50}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	reports, err := h.svc.List(r.Context(), orgID, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListReportsResponse{
		Reports: reports,
		Count:   len(reports),
		Offset:  filter.Offset,
		Limit:   filter.Limit,
	})
}

// Get handles GET /reports/{reportID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, _, ok := identity(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Get(r.Context(), orgID, chi.URLParam(r, "reportID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListOffenses handles GET /offenses
func (h *Handler) ListOffenses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"offenses": Offenses()})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUnknownOffense),
		errors.Is(err, ErrInvalidNarrative),
		errors.Is(err, ErrInvalidFields):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, ErrSessionNotFound.Error())
	case errors.Is(err, ErrReportNotFound):
		writeError(w, http.StatusNotFound, ErrReportNotFound.Error())
	case errors.Is(err, ErrGenerationFailed), errors.Is(err, ErrMalformedCompletion):
		h.logger.Error("report generation failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "report generation failed, please retry")
	default:
		h.logger.Error("report request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func identity(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusBadRequest, "missing org context")
		return "", "", false
	}
	userID, ok := tenancy.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return "", "", false
	}
	return orgID, userID, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
