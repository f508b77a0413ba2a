package csrf

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/alltechdigital/leads-api/pkg/logging"
)

// Cookie and header names shared with the frontend form.
const (
	HeaderToken   = "X-Csrf-Token"
	CookieHash    = "__csrf_hash"
	CookieExpires = "__csrf_expires"
)

// Handler serves token issuance for the contact form.
type Handler struct {
	service *Service
	logger  *logging.Logger
	secure  bool
}

// NewHandler creates the token endpoint handler. secure controls the Secure
// cookie attribute and should be true behind TLS.
func NewHandler(service *Service, logger *logging.Logger, secure bool) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger, secure: secure}
}

type tokenResponse struct {
	Success   bool   `json:"success"`
	CSRFToken string `json:"csrfToken,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Issue hands out a fresh token. The validation hash and expiry live in
// httpOnly cookies the browser sends back with the form submit.
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.Issue()
	if err != nil {
		h.logger.Error("csrf token generation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, tokenResponse{Success: false, Message: "Erro interno do servidor"})
		return
	}

	maxAge := int(h.service.TTL().Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     CookieHash,
		Value:    token.Hash,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CookieExpires,
		Value:    strconv.FormatInt(token.Expires.UnixMilli(), 10),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	writeJSON(w, http.StatusOK, tokenResponse{Success: true, CSRFToken: token.Value})
}

// ValidateRequest checks a mutating request's token header against its
// cookies. Missing pieces count as invalid rather than expired.
func (h *Handler) ValidateRequest(r *http.Request) error {
	token := r.Header.Get(HeaderToken)
	if token == "" {
		return ErrTokenInvalid
	}

	hashCookie, err := r.Cookie(CookieHash)
	if err != nil {
		return ErrTokenInvalid
	}
	expiresCookie, err := r.Cookie(CookieExpires)
	if err != nil {
		return ErrTokenInvalid
	}
	expiresMillis, err := strconv.ParseInt(expiresCookie.Value, 10, 64)
	if err != nil {
		return ErrTokenInvalid
	}

	return h.service.Validate(token, hashCookie.Value, expiresMillis)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
