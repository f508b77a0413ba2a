package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/alltechdigital/leads-api/internal/leads"
	"github.com/alltechdigital/leads-api/internal/notify"
	"github.com/alltechdigital/leads-api/internal/observability/metrics"
	"github.com/alltechdigital/leads-api/internal/security"
	"github.com/alltechdigital/leads-api/pkg/logging"
)

// Pinger reports database reachability for the health check. *pgxpool.Pool
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler handles the contact form endpoints.
type Handler struct {
	validator *Validator
	repo      leads.Repository
	notifier  *notify.Service
	events    *security.EventLogger
	metrics   *metrics.ContactMetrics
	logger    *logging.Logger
	pinger    Pinger

	// notifyTimeout bounds the fire-and-forget email dispatch, which
	// outlives the request context.
	notifyTimeout time.Duration
}

// NewHandler creates a contact form handler. notifier may be nil when
// notifications are delivered from the outbox instead of inline.
func NewHandler(validator *Validator, repo leads.Repository, notifier *notify.Service, events *security.EventLogger, m *metrics.ContactMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		validator:     validator,
		repo:          repo,
		notifier:      notifier,
		events:        events,
		metrics:       m,
		logger:        logger,
		notifyTimeout: 30 * time.Second,
	}
}

// WithPinger enables the database connectivity health check.
func (h *Handler) WithPinger(p Pinger) *Handler {
	h.pinger = p
	return h
}

// Submit handles POST /api/contact.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.logger.Error("failed to decode submission", "error", err)
		h.observeSubmission("rejected")
		writeResponse(w, http.StatusBadRequest, Response{
			Success: false,
			Message: "Dados inválidos. Verifique os campos e tente novamente.",
		})
		return
	}

	h.validator.Normalize(&sub)
	result := h.validator.Validate(sub)

	for _, advisory := range result.Advisories {
		if h.events != nil {
			h.events.Log(r, security.CategoryInputValidation, "SUBMISSION_ADVISORY", advisory, security.LevelInfo, map[string]any{
				"email": sub.Email,
			})
		}
	}

	if !result.Valid {
		if h.events != nil {
			h.events.Log(r, security.CategoryInputValidation, "SUBMISSION_REJECTED", "contact submission failed validation", security.LevelWarning, map[string]any{
				"error_count": len(result.Errors),
			})
		}
		h.observeSubmission("rejected")
		writeResponse(w, http.StatusBadRequest, Response{
			Success: false,
			Message: "Dados inválidos. Verifique os campos e tente novamente.",
			Errors:  result.Errors,
		})
		return
	}

	params := leads.CreateLeadParams{
		Name:              sub.Name,
		Email:             sub.Email,
		Phone:             sub.Phone,
		Company:           sub.Company,
		CNPJ:              sub.CNPJ,
		NumberOfEmployees: sub.NumberOfEmployees,
		State:             sub.State,
		City:              sub.City,
		ServiceOfInterest: sub.ServiceOfInterest,
		Message:           sub.Message,
	}

	start := time.Now()
	created, err := h.repo.CreateLead(r.Context(), params)
	if h.metrics != nil {
		h.metrics.ObserveLeadTransaction(time.Since(start).Seconds())
	}
	if err != nil {
		if errors.Is(err, leads.ErrUnavailable) {
			h.logger.Error("lead store unreachable", "error", err)
		} else {
			h.logger.Error("failed to create lead", "error", err, "email", sub.Email)
		}
		h.observeSubmission("failed")
		writeResponse(w, http.StatusInternalServerError, Response{
			Success: false,
			Message: "Erro interno do servidor. Tente novamente.",
		})
		return
	}

	h.logger.Info("contact form processed",
		"lead_id", created.LeadID,
		"company_id", created.CompanyID,
		"sales_rep", created.Rep.ID,
	)
	h.observeSubmission("accepted")

	if h.notifier != nil {
		payload := leads.NotificationPayload{
			LeadID:     created.LeadID,
			Submission: params,
			Rep:        created.Rep,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), h.notifyTimeout)
			defer cancel()
			if err := h.notifier.SendLeadNotifications(ctx, payload); err != nil {
				h.logger.Error("failed to send lead notifications", "error", err, "lead_id", payload.LeadID)
			}
		}()
	}

	writeResponse(w, http.StatusOK, Response{
		Success: true,
		Message: "Formulário enviado com sucesso! Entraremos em contato em breve.",
		SalesRepresentative: &RepInfo{
			Name:   created.Rep.Name,
			Email:  created.Rep.Email,
			Region: created.Rep.Region,
		},
	})
}

// Health handles GET /api/contact and GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":  "unhealthy",
				"message": "Problemas de conectividade",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"message":   "Sistema funcionando",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) observeSubmission(status string) {
	if h.metrics != nil {
		h.metrics.ObserveSubmission(status)
	}
}

func writeResponse(w http.ResponseWriter, status int, body Response) {
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
