package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DealerGen/bidbuddy/internal/ingest"
	"github.com/DealerGen/bidbuddy/internal/storage"
	"github.com/DealerGen/bidbuddy/internal/valuation"
	"github.com/DealerGen/bidbuddy/internal/vehicle"
)

const testToken = "test-token-12345"

func setupHandler(t *testing.T, token string) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	handler := NewHandler(AppDeps{
		Store:      store,
		Valuations: valuation.SeedSource(),
		Token:      token,
	})
	return handler, store
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func seedVehicles(t *testing.T, store *storage.Store, records []vehicle.Record) {
	t.Helper()
	if err := store.ReplaceVehicles(records); err != nil {
		t.Fatalf("ReplaceVehicles: %v", err)
	}
}

func TestHealth(t *testing.T) {
	h, _ := setupHandler(t, "")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestGetRetailValuation_Qualified(t *testing.T) {
	h, store := setupHandler(t, "")
	seedVehicles(t, store, []vehicle.Record{
		{ID: "DF17UXG", Make: "Honda", Model: "Civic", RetailValuation: 15000, Status: vehicle.StatusQualified},
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/getRetailValuation?reg=df17uxg", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp map[string]any
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["registration"] != "DF17UXG" {
		t.Errorf("registration = %v, want DF17UXG", resp["registration"])
	}
	if resp["retailValuation"] != float64(15000) {
		t.Errorf("retailValuation = %v, want 15000", resp["retailValuation"])
	}
}

func TestGetRetailValuation_MissingReg(t *testing.T) {
	h, _ := setupHandler(t, "")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/getRetailValuation", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// Vehicles outside the funnel do not answer, even when the store knows
// their valuation.
func TestGetRetailValuation_NotQualified(t *testing.T) {
	h, store := setupHandler(t, "")
	seedVehicles(t, store, []vehicle.Record{
		{ID: "DF17UXG", RetailValuation: 15000, Status: vehicle.StatusLost},
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/getRetailValuation?reg=DF17UXG", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestGetRetailValuation_WrongMethod(t *testing.T) {
	h, _ := setupHandler(t, "")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/getRetailValuation?reg=DF17UXG", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
}

func TestCalculateProfit_KnownRegistration(t *testing.T) {
	h, _ := setupHandler(t, "")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/calculateProfit", strings.NewReader(`{"registration":"df17uxg"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp map[string]string
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["registration"] != "DF17UXG" || resp["make"] != "Honda" || resp["model"] != "Civic" {
		t.Errorf("unexpected identity fields: %v", resp)
	}
	if resp["retailValuation"] != "15000.00" {
		t.Errorf("retailValuation = %q, want %q", resp["retailValuation"], "15000.00")
	}
}

func TestCalculateProfit_UnknownRegistration(t *testing.T) {
	h, _ := setupHandler(t, "")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/calculateProfit", strings.NewReader(`{"registration":"ZZ99ZZZ"}`)))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestCalculateProfit_MalformedBody(t *testing.T) {
	h, _ := setupHandler(t, "")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/calculateProfit", strings.NewReader(`{not json`)))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestCalculateBid(t *testing.T) {
	h, _ := setupHandler(t, "")

	body := `{"retailValuation":10000,"inputs":{"delivery":0,"mot":0,"service":0,"cosmetic":0,"warrantyAndValet":0,"desiredNetProfit":0}}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/calculateProfit", strings.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp map[string]string
	json.NewDecoder(rr.Body).Decode(&resp)
	want := map[string]string{
		"retailValuation": "10000.00",
		"carwowFee":       "319.00",
		"bidPrice":        "9617.20",
		"vatAmount":       "63.80",
		"actualNetProfit": "0.00",
	}
	for k, v := range want {
		if resp[k] != v {
			t.Errorf("%s = %q, want %q", k, resp[k], v)
		}
	}
}

func TestCalculateBid_MalformedBody(t *testing.T) {
	h, _ := setupHandler(t, "")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/calculateProfit", strings.NewReader(`{not json`)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

const listingCSV = "REG,MAKE,MODEL,MILEAGE,CAR_YEAR,RESERVE_OR_BUY_NOW_PRICE,PREVIOUS_OWNERS_COUNT,SERVICE_HISTORY\n" +
	"DF17UXG,Honda,Civic,\"42,000\",2017,\"12,500\",1,full\n" +
	"AB12CDE,Toyota,Yaris,30000,2019,8995,2,part\n"

func TestImport(t *testing.T) {
	h, store := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/vehicles/import", listingCSV, testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp map[string]int
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["imported"] != 2 || resp["queued"] != 2 {
		t.Errorf("imported/queued = %d/%d, want 2/2", resp["imported"], resp["queued"])
	}

	records, err := store.ListVehicles()
	if err != nil {
		t.Fatalf("ListVehicles: %v", err)
	}
	if len(records) != 2 || records[0].Mileage != 42000 {
		t.Errorf("unexpected stored records: %+v", records)
	}

	// A lookup job was queued per record without a valuation.
	job, err := store.ClaimNextJob([]string{ingest.JobType})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if job == nil {
		t.Fatal("expected a queued valuation lookup job")
	}
}

func TestImport_ReplacesSet(t *testing.T) {
	h, store := setupHandler(t, testToken)
	seedVehicles(t, store, []vehicle.Record{{ID: "OLD1", Status: vehicle.StatusWon}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/vehicles/import", listingCSV, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	records, _ := store.ListVehicles()
	for _, rec := range records {
		if rec.ID == "OLD1" {
			t.Error("previous record set survived the import")
		}
	}
}

func TestImport_DuplicateRegistrations(t *testing.T) {
	h, store := setupHandler(t, testToken)

	// Case-only duplicates must not break the import; the last row wins.
	csv := "REG,MAKE,MODEL,MILEAGE\n" +
		"DF17UXG,Honda,Civic,42000\n" +
		"df17uxg,Honda,Civic,43500\n"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/vehicles/import", csv, testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp map[string]int
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["imported"] != 1 {
		t.Errorf("imported = %d, want 1", resp["imported"])
	}

	records, err := store.ListVehicles()
	if err != nil {
		t.Fatalf("ListVehicles: %v", err)
	}
	if len(records) != 1 || records[0].Mileage != 43500 {
		t.Errorf("expected the last duplicate row to win: %+v", records)
	}
}

func TestImport_InvalidCSV(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/vehicles/import", "REG,MAKE\n\"unterminated", testToken))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestFollowUp(t *testing.T) {
	h, store := setupHandler(t, testToken)
	seedVehicles(t, store, []vehicle.Record{
		{ID: "DF17UXG", Mileage: 42000, Status: vehicle.StatusNew},
		{ID: "AB12CDE", Mileage: 30000, Status: vehicle.StatusBid},
	})

	body := "VRM,MILEAGE\ndf17uxg,45000\nZZ99ZZZ,11111\n"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/vehicles/followup", body, testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp map[string]int
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["received"] != 2 || resp["matched"] != 1 {
		t.Errorf("received/matched = %d/%d, want 2/1", resp["received"], resp["matched"])
	}

	rec, err := store.GetVehicle("DF17UXG")
	if err != nil {
		t.Fatalf("GetVehicle: %v", err)
	}
	if rec.Mileage != 45000 {
		t.Errorf("mileage = %d, want 45000", rec.Mileage)
	}

	// The unmatched row was dropped; no new record appeared.
	records, _ := store.ListVehicles()
	if len(records) != 2 {
		t.Errorf("record count = %d, want 2", len(records))
	}
}

func TestExport(t *testing.T) {
	h, store := setupHandler(t, testToken)
	seedVehicles(t, store, []vehicle.Record{
		{ID: "DF17UXG", Mileage: 42000, Status: vehicle.StatusNew},
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/vehicles/export", "", testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if rr.Body.String() != "VRM,MILEAGE\nDF17UXG,42000\n" {
		t.Errorf("unexpected body: %q", rr.Body.String())
	}
}

func TestGetVehicle(t *testing.T) {
	h, store := setupHandler(t, testToken)
	seedVehicles(t, store, []vehicle.Record{
		{ID: "DF17UXG", Make: "Honda", Status: vehicle.StatusNew},
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/vehicles/DF17UXG", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/vehicles/ZZ99ZZZ", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestSetStatus(t *testing.T) {
	h, store := setupHandler(t, testToken)
	seedVehicles(t, store, []vehicle.Record{
		{ID: "DF17UXG", Status: vehicle.StatusQualified},
	})

	body := `{"status":"won","wonPrice":11800}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/vehicles/DF17UXG/status", body, testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	rec, err := store.GetVehicle("DF17UXG")
	if err != nil {
		t.Fatalf("GetVehicle: %v", err)
	}
	if rec.Status != vehicle.StatusWon {
		t.Errorf("status = %q, want won", rec.Status)
	}
	if rec.WonPrice == nil || *rec.WonPrice != 11800 {
		t.Errorf("wonPrice = %v, want 11800", rec.WonPrice)
	}
}

func TestSetStatus_UnknownStatus(t *testing.T) {
	h, store := setupHandler(t, testToken)
	seedVehicles(t, store, []vehicle.Record{{ID: "DF17UXG", Status: vehicle.StatusNew}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/vehicles/DF17UXG/status", `{"status":"maybe"}`, testToken))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSetStatus_UnknownVehicle(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/vehicles/ZZ99ZZZ/status", `{"status":"bid"}`, testToken))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestFunnelBoard(t *testing.T) {
	h, store := setupHandler(t, testToken)
	seedVehicles(t, store, []vehicle.Record{
		{ID: "WON1", Status: vehicle.StatusWon},
		{ID: "BID1", Status: vehicle.StatusBid},
		{ID: "FAIL1", Status: vehicle.StatusNew}, // zero rating, never qualifies
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/funnel", "", testToken))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var board map[string][]vehicle.Record
	json.NewDecoder(rr.Body).Decode(&board)
	if len(board["won"]) != 1 || len(board["bid"]) != 1 {
		t.Errorf("unexpected board: %v", board)
	}
	if len(board["qualified"]) != 0 {
		t.Errorf("unqualified record on the board: %v", board["qualified"])
	}
}

func TestParameters_DefaultsAndUpdate(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/parameters", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var params vehicle.Parameters
	json.NewDecoder(rr.Body).Decode(&params)
	if params.MaxPrice != 50000 || params.MaxAge != 10 {
		t.Errorf("unexpected defaults: %+v", params)
	}

	params.MaxMileage = 80000
	body, _ := json.Marshal(params)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPut, "/parameters", string(body), testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", rr.Code, http.StatusOK)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/parameters", "", testToken))
	json.NewDecoder(rr.Body).Decode(&params)
	if params.MaxMileage != 80000 {
		t.Errorf("update not persisted: %+v", params)
	}
}

func TestBearerAuth_GuardsManagementRoutes(t *testing.T) {
	h, _ := setupHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/vehicles", "", ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/vehicles", "", "wrong-token"))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	// Lookup endpoints stay open.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestNoToken_DisablesAuth(t *testing.T) {
	h, _ := setupHandler(t, "")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/vehicles", "", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}
