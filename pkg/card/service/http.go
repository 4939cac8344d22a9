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
	"github.com/LilFatFrank/scratch-off/pkg/card"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers card endpoints on the given chi router. All
// routes expect an authenticated wallet in the request context.
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Post("/cards/buy", apphttp.HandleError(h.buy))
	r.Get("/cards", apphttp.HandleError(h.list))
	r.Get("/cards/{id}", apphttp.HandleError(h.get))
	r.Post("/cards/{id}/process-prize", apphttp.HandleError(h.processPrize))
}

func (h *HTTP) buy(w http.ResponseWriter, r *http.Request) error {
	wallet, err := requireWallet(r)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}

	var req card.BuyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	if err := apphttp.ValidateRequest(&req); err != nil {
		return err
	}

	resp, err := h.service.BuyCards(r.Context(), wallet, &req)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) list(w http.ResponseWriter, r *http.Request) error {
	wallet, err := requireWallet(r)
	if err != nil {
		return err
	}

	var scratched *bool
	if raw := r.URL.Query().Get("scratched"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.BadRequestError(err, "invalid scratched filter")
		}
		scratched = &v
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	cards, err := h.service.ListCards(r.Context(), wallet, scratched, limit, offset)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
	return nil
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) error {
	wallet, err := requireWallet(r)
	if err != nil {
		return err
	}

	id, err := cardID(r)
	if err != nil {
		return err
	}

	resp, err := h.service.GetCard(r.Context(), wallet, id)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) processPrize(w http.ResponseWriter, r *http.Request) error {
	wallet, err := requireWallet(r)
	if err != nil {
		return err
	}

	id, err := cardID(r)
	if err != nil {
		return err
	}

	req := &card.ProcessPrizeRequest{CardID: id}
	if err := apphttp.ValidateRequest(req); err != nil {
		return err
	}

	resp, err := h.service.ProcessPrize(r.Context(), wallet, req)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func requireWallet(r *http.Request) (string, error) {
	wallet, ok := auth.WalletFromContext(r.Context())
	if !ok || wallet == "" {
		return "", apperrors.UnAuthorizedError(nil, "authentication required")
	}
	return wallet, nil
}

func cardID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperrors.BadRequestError(err, "invalid card id")
	}
	return id, nil
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
