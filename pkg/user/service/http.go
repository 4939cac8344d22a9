package service

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/LilFatFrank/scratch-off/pkg/app/errors"
	apphttp "github.com/LilFatFrank/scratch-off/pkg/app/http"
	"github.com/LilFatFrank/scratch-off/pkg/auth"
	"github.com/LilFatFrank/scratch-off/pkg/user"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterPublicRoutes registers the endpoints that do not require a
// session: login, the leaderboard and the public reveal feed.
func RegisterPublicRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Post("/auth/login", apphttp.HandleError(h.login))
	// Alias kept for clients still using the original route name.
	r.Post("/verify-signature", apphttp.HandleError(h.login))
	r.Get("/leaderboard", apphttp.HandleError(h.leaderboard))
	r.Get("/reveals", apphttp.HandleError(h.reveals))
	r.Get("/stats", apphttp.HandleError(h.stats))
	r.Get("/users/{wallet}", apphttp.HandleError(h.get))
}

// RegisterRoutes registers the session-protected profile endpoints.
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Post("/users/check-or-create", apphttp.HandleError(h.checkOrCreate))
	r.Get("/users/me", apphttp.HandleError(h.me))
}

func (h *HTTP) login(w http.ResponseWriter, r *http.Request) error {
	var req user.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := apphttp.ValidateRequest(&req); err != nil {
		return err
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) checkOrCreate(w http.ResponseWriter, r *http.Request) error {
	wallet, ok := auth.WalletFromContext(r.Context())
	if !ok || wallet == "" {
		return apperrors.UnAuthorizedError(nil, "authentication required")
	}

	var req user.CheckOrCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	// The session wallet is authoritative, not the body, so validation
	// runs after the override.
	req.Wallet = wallet
	if err := apphttp.ValidateRequest(&req); err != nil {
		return err
	}

	resp, err := h.service.CheckOrCreate(r.Context(), &req)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, resp)
	return nil
}

func (h *HTTP) me(w http.ResponseWriter, r *http.Request) error {
	wallet, ok := auth.WalletFromContext(r.Context())
	if !ok || wallet == "" {
		return apperrors.UnAuthorizedError(nil, "authentication required")
	}

	resp, err := h.service.GetUser(r.Context(), wallet)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) error {
	resp, err := h.service.GetUser(r.Context(), chi.URLParam(r, "wallet"))
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) leaderboard(w http.ResponseWriter, r *http.Request) error {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	users, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"users": users})
	return nil
}

func (h *HTTP) reveals(w http.ResponseWriter, r *http.Request) error {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	reveals, err := h.service.Reveals(r.Context(), limit)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"reveals": reveals})
	return nil
}

func (h *HTTP) stats(w http.ResponseWriter, r *http.Request) error {
	resp, err := h.service.Stats(r.Context())
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	return nil
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
