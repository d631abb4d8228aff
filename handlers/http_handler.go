package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/pediatric-drug-calculator/dosage"
	"github.com/giygas/pediatric-drug-calculator/entities"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/giygas/pediatric-drug-calculator/logging"
	"github.com/giygas/pediatric-drug-calculator/lookup"
	"github.com/giygas/pediatric-drug-calculator/metrics"
	"github.com/giygas/pediatric-drug-calculator/seed"
	"github.com/giygas/pediatric-drug-calculator/validation"
	"github.com/go-chi/chi/v5"
)

// Compile-time check
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	store   interfaces.ReferenceStore
	lookup  *lookup.Service
	seeder  *seed.Seeder
	checker interfaces.HealthChecker
}

// NewHTTPHandler creates the handlers over store. checker may be nil, in
// which case /health only reports that the process is up.
func NewHTTPHandler(store interfaces.ReferenceStore, checker interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		store:   store,
		lookup:  lookup.NewService(store),
		seeder:  seed.NewSeeder(store),
		checker: checker,
	}
}

// CalculationRequest is the body of POST /calculate. Weight accepts a JSON
// number or a numeric string, as typed in a form field.
type CalculationRequest struct {
	DrugID string      `json:"drugId"`
	Weight json.Number `json:"weight"`
}

// CalculationResponse is the result of POST /calculate
type CalculationResponse struct {
	Outcome   string               `json:"outcome"`
	DrugID    string               `json:"drugId"`
	Weight    float64              `json:"weight"`
	Dose      string               `json:"dose,omitempty"`
	Computed  *dosage.Computed     `json:"computed,omitempty"`
	Band      *entities.DosageBand `json:"band,omitempty"`
	Advice    dosage.Advice        `json:"advice"`
	ShareText string               `json:"shareText,omitempty"`
}

// queryID reads and validates an id query parameter. It writes the 400
// response itself and reports whether the handler may continue.
func queryID(w http.ResponseWriter, r *http.Request, param, label string) (string, bool) {
	id := strings.TrimSpace(r.URL.Query().Get(param))
	if id == "" {
		RespondWithError(w, http.StatusBadRequest, label+" ID is required")
		return "", false
	}
	if err := validation.ValidateID(id); err != nil {
		logging.Warn("Unusual user input", param, id, "error", err)
		RespondWithError(w, http.StatusBadRequest, "Invalid "+strings.ToLower(label)+" ID: "+err.Error())
		return "", false
	}
	return id, true
}

// respondLookupError maps lookup errors to HTTP status codes. Storage
// details were already logged by the lookup service.
func respondLookupError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, lookup.ErrInvalidArgument) {
		RespondWithError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), lookup.ErrInvalidArgument.Error()+": "))
		return
	}
	RespondWithError(w, http.StatusInternalServerError, fallback)
}

// ServeSystems returns the medical systems
func (h *HTTPHandlerImpl) ServeSystems(w http.ResponseWriter, r *http.Request) {
	systems, err := h.lookup.Systems(r.Context())
	if err != nil {
		respondLookupError(w, err, "Failed to fetch medical systems")
		return
	}
	RespondWithJSON(w, http.StatusOK, systems)
}

// ServeDrugs returns the drugs of ?systemId= sorted by name
func (h *HTTPHandlerImpl) ServeDrugs(w http.ResponseWriter, r *http.Request) {
	systemID, ok := queryID(w, r, "systemId", "System")
	if !ok {
		return
	}

	drugs, err := h.lookup.Drugs(r.Context(), systemID)
	if err != nil {
		respondLookupError(w, err, "Failed to fetch drugs")
		return
	}
	RespondWithJSON(w, http.StatusOK, drugs)
}

// ServeDosages returns the dosage bands of ?drugId= sorted by age group
func (h *HTTPHandlerImpl) ServeDosages(w http.ResponseWriter, r *http.Request) {
	drugID, ok := queryID(w, r, "drugId", "Drug")
	if !ok {
		return
	}

	bands, err := h.lookup.DosageBands(r.Context(), drugID)
	if err != nil {
		respondLookupError(w, err, "Failed to fetch dosages")
		return
	}
	RespondWithJSON(w, http.StatusOK, bands)
}

// Calculate selects the band of a drug for a weight and computes the dose.
// No band and an unparsed dose are advisory outcomes and answer 200.
func (h *HTTPHandlerImpl) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Request body must be a JSON object with drugId and weight")
		return
	}

	req.DrugID = strings.TrimSpace(req.DrugID)
	if req.DrugID == "" {
		RespondWithError(w, http.StatusBadRequest, "Drug ID is required")
		return
	}
	if err := validation.ValidateID(req.DrugID); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid drug ID: "+err.Error())
		return
	}

	weight, err := dosage.ParseWeight(req.Weight.String())
	if err != nil {
		metrics.DoseCalculations.WithLabelValues(dosage.OutcomeInvalid).Inc()
		RespondWithError(w, http.StatusBadRequest, dosage.Advise(dosage.Calculation{}, err).Headline)
		return
	}

	bands, err := h.lookup.DosageBands(r.Context(), req.DrugID)
	if err != nil {
		respondLookupError(w, err, "Failed to fetch dosages")
		return
	}

	calc, err := dosage.Calculate(weight, bands)
	resp := CalculationResponse{
		DrugID: req.DrugID,
		Weight: weight,
		Advice: dosage.Advise(calc, err),
	}

	switch {
	case errors.Is(err, dosage.ErrNoBandFound):
		resp.Outcome = dosage.OutcomeNoBand
	case errors.Is(err, dosage.ErrInvalidWeight):
		metrics.DoseCalculations.WithLabelValues(dosage.OutcomeInvalid).Inc()
		RespondWithError(w, http.StatusBadRequest, resp.Advice.Headline)
		return
	case err != nil:
		logging.Error("Dose calculation failed", "drug_id", req.DrugID, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Failed to calculate dose")
		return
	default:
		resp.Outcome = calc.Outcome()
		resp.Band = &calc.Band
		if computed, ok := calc.Computed(); ok {
			resp.Computed = &computed
			resp.Dose = computed.String()
			resp.ShareText = dosage.ShareText(resp.Dose, weight)
		}
	}

	metrics.DoseCalculations.WithLabelValues(resp.Outcome).Inc()
	logging.Debug("Dose calculated", "drug_id", req.DrugID, "weight", weight, "outcome", resp.Outcome)
	RespondWithJSON(w, http.StatusOK, resp)
}

// SeedSystems clears the catalog and reloads the medical systems
func (h *HTTPHandlerImpl) SeedSystems(w http.ResponseWriter, r *http.Request) {
	count, err := h.seeder.SeedSystems(r.Context())
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to seed medical systems")
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"message": seed.SystemsMessage,
		"count":   count,
	})
}

// SeedBodySystem inserts the literal drugs of /seed/{bodySystem}
func (h *HTTPHandlerImpl) SeedBodySystem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "bodySystem")
	bs, ok := seed.LookupBodySystem(name)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "Unknown body system: "+name)
		return
	}

	res, err := h.seeder.SeedBodySystem(r.Context(), bs.Name)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to seed "+bs.Label+" drugs")
		return
	}
	RespondWithJSON(w, http.StatusOK, res)
}

// ExportCatalog streams the whole catalog as an XLSX workbook
func (h *HTTPHandlerImpl) ExportCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.store.Snapshot(r.Context())
	if err != nil {
		logging.Error("Failed to snapshot catalog for export", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Failed to export catalog")
		return
	}

	data, err := BuildCatalogWorkbook(catalog)
	if err != nil {
		logging.Error("Failed to build catalog workbook", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Failed to export catalog")
		return
	}

	filename := "pediatric-catalog-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write workbook", "error", err)
	}
}

// HealthResponse keeps a stable field order in /health output
type HealthResponse struct {
	Status string         `json:"status"`
	Time   string         `json:"time"`
	Data   map[string]any `json:"details"`
}

// HealthCheck reports store and audit health
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, code := "healthy", map[string]any{}, http.StatusOK
	if h.checker != nil {
		status, details, code = h.checker.HealthCheck(r.Context())
	}

	RespondWithJSON(w, code, HealthResponse{
		Status: status,
		Time:   time.Now().UTC().Format(time.RFC3339),
		Data:   details,
	})
}
