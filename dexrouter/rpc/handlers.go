package rpc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/models"
	"github.com/Cogwheel-Validator/spectra-dex-router/dexrouter/node"
)

const maxBodyBytes = 64 << 10

type handlers struct {
	node    *node.Node
	metrics *Metrics
}

func newHandlers(n *node.Node, m *Metrics) *handlers {
	return &handlers{node: n, metrics: m}
}

func (h *handlers) routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/swap", h.swap)
	r.Post("/quote", h.quote)
	r.Get("/venues", h.venues)
	r.Get("/pools", h.pools)
	r.Get("/events", h.events)
	r.Get("/balances/{account}/{asset}", h.balance)
	return r
}

func (h *handlers) swap(w http.ResponseWriter, r *http.Request) {
	var req models.SwapRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, span := startSwapSpan(r.Context(), "dexrouter.swap", req)
	resp, err := h.node.Swap(ctx, req)
	if err != nil {
		endSpan(span, err)
		writeError(w, err)
		return
	}
	endSpan(span, nil,
		attribute.String("dex.venue", string(resp.Outcome.AMMUsed)),
		attribute.String("dex.amount_out", resp.Outcome.AmountOut.String()),
		attribute.String("dex.router_fee", resp.Outcome.RouterFee.String()),
	)
	h.metrics.ObserveOutcome(resp.Outcome)
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) quote(w http.ResponseWriter, r *http.Request) {
	var req models.QuoteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.node.Quote(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) venues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.node.Venues())
}

func (h *handlers) pools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.node.Pools())
}

// events returns the swap outcomes from index ?from= onwards.
func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	from := 0
	if raw := r.URL.Query().Get("from"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, &node.InputError{Field: "from", Err: errors.New("must be a non-negative integer")})
			return
		}
		from = v
	}
	writeJSON(w, http.StatusOK, h.node.Events(from))
}

func (h *handlers) balance(w http.ResponseWriter, r *http.Request) {
	resp, err := h.node.Balance(chi.URLParam(r, "account"), chi.URLParam(r, "asset"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &node.InputError{Field: "body", Err: err}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := ErrorKind(err)
	status := statusFor(kind)
	message := err.Error()
	if status == http.StatusInternalServerError {
		Logger.Error().Err(err).Msg("Internal error")
		message = http.StatusText(status)
	}
	writeJSON(w, status, models.ErrorResponse{Error: kind, Message: message})
}
