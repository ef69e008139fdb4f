// Package api exposes the bid-management HTTP surface: the public
// valuation and profit lookup endpoints, the token-guarded management
// API over the record set, and the MCP server for auction-page
// companions.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/DealerGen/bidbuddy/internal/csvio"
	"github.com/DealerGen/bidbuddy/internal/funnel"
	"github.com/DealerGen/bidbuddy/internal/ingest"
	"github.com/DealerGen/bidbuddy/internal/storage"
	"github.com/DealerGen/bidbuddy/internal/valuation"
	"github.com/DealerGen/bidbuddy/internal/vehicle"
)

const maxImportBodySize = 10 << 20 // 10MB

type AppDeps struct {
	Store *storage.Store
	// Valuations is the reference source consulted by the profit lookup
	// and the ingest worker; it does not filter on funnel status.
	Valuations valuation.Source
	// Token guards the management routes. Empty disables auth for
	// local single-user setups.
	Token string
}

func NewHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	qualified := valuation.NewStoreSource(deps.Store)

	r.Get("/health", handleHealth)
	r.Get("/getRetailValuation", handleGetRetailValuation(qualified))
	r.Post("/calculateProfit", handleCalculateProfit(deps.Valuations))
	r.Post("/api/calculateProfit", handleCalculateBid)

	r.Group(func(g chi.Router) {
		if deps.Token != "" {
			g.Use(BearerAuth(deps.Token))
		}
		g.Post("/vehicles/import", handleImport(deps))
		g.Post("/vehicles/followup", handleFollowUp(deps))
		g.Get("/vehicles", handleListVehicles(deps))
		g.Get("/vehicles/export", handleExport(deps))
		g.Get("/vehicles/{id}", handleGetVehicle(deps))
		g.Post("/vehicles/{id}/status", handleSetStatus(deps))
		g.Get("/funnel", handleFunnel(deps))
		g.Get("/parameters", handleGetParameters(deps))
		g.Put("/parameters", handlePutParameters(deps))
	})

	return r
}

// handleImport replaces the active record set with the uploaded listing
// CSV and queues a valuation lookup for every record arriving without
// one.
func handleImport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)
		defer r.Body.Close()

		records, err := csvio.ParseListing(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid csv: %v", err)
			return
		}

		if err := deps.Store.ReplaceVehicles(records); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save records: %v", err)
			return
		}

		queued := 0
		for _, rec := range records {
			if rec.RetailValuation != 0 {
				continue
			}
			payload, err := json.Marshal(ingest.Payload{Registration: rec.ID})
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to create job payload: %v", err)
				return
			}
			job := storage.Job{
				ID:          uuid.New().String(),
				Type:        ingest.JobType,
				PayloadJSON: string(payload),
			}
			if err := deps.Store.EnqueueJob(job); err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to enqueue job: %v", err)
				return
			}
			queued++
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"imported": len(records),
			"queued":   queued,
		})
	}
}

// handleFollowUp merges corrected mileage from an annotated CSV back
// into the record set. Rows whose VRM matches no active record are
// dropped without signal.
func handleFollowUp(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)
		defer r.Body.Close()

		updates, err := csvio.ParseFollowUp(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid csv: %v", err)
			return
		}

		originals, err := deps.Store.ListVehicles()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load records: %v", err)
			return
		}

		merged := vehicle.Merge(originals, updates)
		if err := deps.Store.ReplaceVehicles(merged); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save records: %v", err)
			return
		}

		byID := make(map[string]struct{}, len(originals))
		for _, rec := range originals {
			byID[strings.ToLower(rec.ID)] = struct{}{}
		}
		matched := 0
		for _, u := range updates {
			if _, ok := byID[strings.ToLower(u.ID)]; ok {
				matched++
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"received": len(updates),
			"matched":  matched,
		})
	}
}

func handleListVehicles(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := deps.Store.ListVehicles()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list records: %v", err)
			return
		}
		if records == nil {
			records = []vehicle.Record{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}

func handleGetVehicle(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		rec, err := deps.Store.GetVehicle(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "vehicle not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get vehicle: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rec)
	}
}

// handleExport emits the simplified VRM,MILEAGE table for external
// annotation and later follow-up upload.
func handleExport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := deps.Store.ListVehicles()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list records: %v", err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="vehicles.csv"`)
		// Headers are already written; a mid-stream failure cannot be
		// reported as a status code.
		_ = csvio.WriteSimplified(w, records)
	}
}

type setStatusRequest struct {
	Status   string   `json:"status"`
	WonPrice *float64 `json:"wonPrice"`
}

func handleSetStatus(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req setStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		status := vehicle.Status(req.Status)
		if !status.IsValid() {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown status %q", req.Status)
			return
		}

		records, err := deps.Store.ListVehicles()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load records: %v", err)
			return
		}

		moved, err := funnel.Move(records, id, status, req.WonPrice)
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "vehicle not found")
			return
		}

		for _, rec := range moved {
			if !strings.EqualFold(rec.ID, id) {
				continue
			}
			if err := deps.Store.UpdateVehicleStatus(rec.ID, rec.Status, rec.WonPrice); err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to save status: %v", err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(rec)
			return
		}
	}
}

func handleFunnel(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := deps.Store.ListVehicles()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load records: %v", err)
			return
		}

		params, err := loadParameters(deps.Store)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load parameters: %v", err)
			return
		}

		board := funnel.Group(records, params, time.Now().Year())

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(board)
	}
}

func handleGetParameters(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := loadParameters(deps.Store)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load parameters: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(params)
	}
}

func handlePutParameters(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var params vehicle.Parameters
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if err := deps.Store.SaveParameters(params); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save parameters: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(params)
	}
}

// loadParameters falls back to the defaults until the user saves a set.
func loadParameters(store *storage.Store) (vehicle.Parameters, error) {
	params, err := store.LoadParameters()
	if errors.Is(err, storage.ErrNotFound) {
		return vehicle.DefaultParameters(), nil
	}
	return params, err
}
