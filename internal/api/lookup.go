package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/DealerGen/bidbuddy/internal/pricing"
	"github.com/DealerGen/bidbuddy/internal/valuation"
)

const maxRequestBodySize = 1 << 20 // 1MB

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleGetRetailValuation answers only for vehicles admitted to the
// funnel: the qualified source wraps the store and filters on status.
func handleGetRetailValuation(qualified valuation.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg := r.URL.Query().Get("reg")
		if reg == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "registration number is required")
			return
		}

		v, err := qualified.Lookup(r.Context(), reg)
		if errors.Is(err, valuation.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "qualified car not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to retrieve car data: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
}

type calculateProfitRequest struct {
	Registration string `json:"registration"`
}

// handleCalculateProfit resolves a registration against the reference
// valuation sources. A malformed body is a 500, not a 400: the endpoint
// predates request validation and its callers depend on the status.
func handleCalculateProfit(source valuation.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req calculateProfitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to retrieve car data: %v", err)
			return
		}

		v, err := source.Lookup(r.Context(), req.Registration)
		if errors.Is(err, valuation.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "car not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to retrieve car data: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"registration":    v.Registration,
			"make":            v.Make,
			"model":           v.Model,
			"retailValuation": decimal.NewFromFloat(v.RetailValuation).StringFixed(2),
		})
	}
}

type calculateBidRequest struct {
	RetailValuation float64        `json:"retailValuation"`
	Inputs          pricing.Inputs `json:"inputs"`
}

// handleCalculateBid runs the profit calculator for a given valuation.
// All monetary fields in the response are two-decimal strings.
func handleCalculateBid(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req calculateBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}

	res := pricing.CalculateForValuation(req.RetailValuation, req.Inputs)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"retailValuation": res.RetailValuation.StringFixed(2),
		"carwowFee":       res.CarwowFee.StringFixed(2),
		"bidPrice":        res.BidPrice.StringFixed(2),
		"vatAmount":       res.VATAmount.StringFixed(2),
		"actualNetProfit": res.ActualNetProfit.StringFixed(2),
	})
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
