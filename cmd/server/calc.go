package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Simplici0/qc.works/internal/report"
	"github.com/Simplici0/qc.works/internal/sampling"
)

const maxAPIBodyBytes = 1 << 16

// calcForm keeps the raw form values so invalid input is echoed back as typed.
type calcForm struct {
	LotSize                   string
	SampleSize                string
	UnitInspectionCost        string
	RejectedLotExpense        string
	AcceptableQualityLevel    string
	TolerableDefectPercentage string
	MaxAcceptanceNumber       string
	HistoricalDefectRate      string
	BusinessDaysPerMonth      string
	IncludeTravel             bool
	TravelDistanceKm          string
	CostPerKm                 string
	VisitsPerMonth            string
	SupplierID                int64
}

type calcViewData struct {
	baseViewData
	Form       calcForm
	ErrorField string
	Suppliers  []supplier
	Result     *report.View
}

type apiComputeResponse struct {
	ID     string          `json:"id"`
	Result sampling.Result `json:"result"`
}

type apiErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *server) handleCalcForm(w http.ResponseWriter, r *http.Request) {
	settings, err := s.getCostSettings()
	if err != nil {
		s.log.Error("load cost settings", zap.Error(err))
		http.Error(w, "failed to load cost settings", http.StatusInternalServerError)
		return
	}

	form := defaultCalcForm(settings)
	if raw := r.URL.Query().Get("supplier"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid supplier id", http.StatusBadRequest)
			return
		}
		sup, found, err := s.getSupplier(id)
		if err != nil {
			s.log.Error("load supplier", zap.Int64("id", id), zap.Error(err))
			http.Error(w, "failed to load supplier", http.StatusInternalServerError)
			return
		}
		if !found {
			http.NotFound(w, r)
			return
		}
		applySupplier(&form, sup)
	}

	s.renderCalc(w, http.StatusOK, calcViewData{Form: form})
}

func (s *server) handleCalcSubmit(w http.ResponseWriter, r *http.Request) {
	params, form, err := s.parseCalcRequest(r)
	if err != nil {
		s.renderCalcError(w, form, err)
		return
	}

	result, err := s.compute(params)
	if err != nil {
		s.renderCalcError(w, form, err)
		return
	}

	view := report.New(result, s.currency(), params.Travel != nil)
	s.renderCalc(w, http.StatusOK, calcViewData{Form: form, Result: &view})
}

func (s *server) handleCalcText(w http.ResponseWriter, r *http.Request) {
	params, _, err := s.parseCalcRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.compute(params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := report.WriteText(w, params, report.New(result, s.currency(), params.Travel != nil)); err != nil {
		s.log.Warn("write text report", zap.Error(err))
	}
}

// handleAPICompute applies the same checks as the form: costs, days and
// travel must be finite and non-negative, and a result that overflows is
// reported as 400 rather than encoded.
func (s *server) handleAPICompute(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAPIBodyBytes))
	dec.DisallowUnknownFields()

	var params sampling.Parameters
	if err := dec.Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, apiErrorResponse{Error: fmt.Sprintf("invalid JSON body: %v", err)})
		return
	}

	if err := params.ValidateCosts(); err != nil {
		writeAPIError(w, err)
		return
	}
	result, err := s.compute(params)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if !result.IsFinite() {
		writeJSON(w, http.StatusBadRequest, apiErrorResponse{Error: "result out of range: cost inputs are too large"})
		return
	}

	id := uuid.NewString()
	s.log.Info("calculation",
		zap.String("id", id),
		zap.Float64("acceptance_probability", result.AcceptanceProbability),
		zap.Float64("total_cost", result.TotalCost),
		zap.Bool("lot_accepted", result.LotAccepted),
	)
	writeJSON(w, http.StatusOK, apiComputeResponse{ID: id, Result: result})
}

func writeAPIError(w http.ResponseWriter, err error) {
	resp := apiErrorResponse{Error: err.Error()}
	var perr *sampling.ParameterError
	if errors.As(err, &perr) {
		resp.Field = perr.Field
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// compute wraps sampling.Compute with request-level logging.
func (s *server) compute(params sampling.Parameters) (sampling.Result, error) {
	result, err := sampling.Compute(params)
	if err != nil {
		s.log.Debug("calculation rejected", zap.Error(err))
		return sampling.Result{}, err
	}
	return result, nil
}

// currency returns the configured prefix, falling back to the default when
// settings cannot be read.
func (s *server) currency() string {
	settings, err := s.getCostSettings()
	if err != nil {
		s.log.Warn("load currency", zap.Error(err))
		return report.DefaultCurrency
	}
	return settings.Currency
}

func (s *server) renderCalc(w http.ResponseWriter, status int, data calcViewData) {
	suppliers, err := s.listSuppliers(true)
	if err != nil {
		s.log.Warn("load suppliers for calc form", zap.Error(err))
	}
	data.Suppliers = suppliers
	s.renderTemplate(w, status, "calc.html", data)
}

func (s *server) renderCalcError(w http.ResponseWriter, form calcForm, err error) {
	data := calcViewData{Form: form, baseViewData: baseViewData{ErrorMessage: err.Error()}}
	var perr *sampling.ParameterError
	if errors.As(err, &perr) {
		data.ErrorField = perr.Field
		data.ErrorMessage = perr.Field + ": " + perr.Reason
	}
	s.renderCalc(w, http.StatusBadRequest, data)
}

func (s *server) parseCalcRequest(r *http.Request) (sampling.Parameters, calcForm, error) {
	if err := r.ParseForm(); err != nil {
		return sampling.Parameters{}, calcForm{}, fmt.Errorf("invalid form: %w", err)
	}
	return parseCalcForm(r)
}

func defaultCalcForm(settings costSettings) calcForm {
	return calcForm{
		LotSize:                   "0",
		SampleSize:                "0",
		UnitInspectionCost:        formatFloat(settings.UnitInspectionCost),
		RejectedLotExpense:        formatFloat(settings.RejectedLotExpense),
		AcceptableQualityLevel:    "0",
		TolerableDefectPercentage: "0",
		MaxAcceptanceNumber:       "0",
		HistoricalDefectRate:      "0",
		BusinessDaysPerMonth:      strconv.Itoa(settings.BusinessDaysPerMonth),
		TravelDistanceKm:          "0",
		CostPerKm:                 formatFloat(settings.CostPerKm),
		VisitsPerMonth:            "0",
	}
}

func applySupplier(form *calcForm, sup supplier) {
	form.SupplierID = sup.ID
	form.HistoricalDefectRate = formatFloat(sup.HistoricalDefectRate)
	form.TravelDistanceKm = formatFloat(sup.TravelDistanceKm)
	form.VisitsPerMonth = strconv.Itoa(sup.VisitsPerMonth)
	form.IncludeTravel = sup.TravelDistanceKm > 0 && sup.VisitsPerMonth > 0
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseCalcForm converts the calculator form into sampling.Parameters.
// Input errors are reported as *sampling.ParameterError so the page can
// highlight the field; range checks on percentages and sizes are left to
// sampling.Compute.
func parseCalcForm(r *http.Request) (sampling.Parameters, calcForm, error) {
	form := calcForm{
		LotSize:                   strings.TrimSpace(r.FormValue("lot_size")),
		SampleSize:                strings.TrimSpace(r.FormValue("sample_size")),
		UnitInspectionCost:        strings.TrimSpace(r.FormValue("unit_inspection_cost")),
		RejectedLotExpense:        strings.TrimSpace(r.FormValue("rejected_lot_expense")),
		AcceptableQualityLevel:    strings.TrimSpace(r.FormValue("acceptable_quality_level")),
		TolerableDefectPercentage: strings.TrimSpace(r.FormValue("tolerable_defect_percentage")),
		MaxAcceptanceNumber:       strings.TrimSpace(r.FormValue("max_acceptance_number")),
		HistoricalDefectRate:      strings.TrimSpace(r.FormValue("historical_defect_rate")),
		BusinessDaysPerMonth:      strings.TrimSpace(r.FormValue("business_days_per_month")),
		IncludeTravel:             r.FormValue("include_travel") == "1",
		TravelDistanceKm:          strings.TrimSpace(r.FormValue("travel_distance_km")),
		CostPerKm:                 strings.TrimSpace(r.FormValue("cost_per_km")),
		VisitsPerMonth:            strings.TrimSpace(r.FormValue("visits_per_month")),
	}
	if id, err := strconv.ParseInt(r.FormValue("supplier_id"), 10, 64); err == nil && id > 0 {
		form.SupplierID = id
	}

	var p sampling.Parameters
	var err error

	ints := []struct {
		field string
		raw   string
		dst   *int
	}{
		{"lot_size", form.LotSize, &p.LotSize},
		{"sample_size", form.SampleSize, &p.SampleSize},
		{"max_acceptance_number", form.MaxAcceptanceNumber, &p.MaxAcceptanceNumber},
		{"business_days_per_month", form.BusinessDaysPerMonth, &p.BusinessDaysPerMonth},
	}
	for _, in := range ints {
		if *in.dst, err = strconv.Atoi(in.raw); err != nil {
			return p, form, &sampling.ParameterError{Field: in.field, Reason: "deve ser um número inteiro"}
		}
	}
	if p.BusinessDaysPerMonth < 0 {
		return p, form, &sampling.ParameterError{Field: "business_days_per_month", Reason: "deve ser maior ou igual a 0"}
	}

	floats := []struct {
		field       string
		raw         string
		dst         *float64
		nonNegative bool
	}{
		{"unit_inspection_cost", form.UnitInspectionCost, &p.UnitInspectionCost, true},
		{"rejected_lot_expense", form.RejectedLotExpense, &p.RejectedLotExpense, true},
		{"acceptable_quality_level", form.AcceptableQualityLevel, &p.AcceptableQualityLevel, false},
		{"tolerable_defect_percentage", form.TolerableDefectPercentage, &p.TolerableDefectPercentage, false},
		{"historical_defect_rate", form.HistoricalDefectRate, &p.HistoricalDefectRate, false},
	}
	for _, in := range floats {
		if *in.dst, err = strconv.ParseFloat(in.raw, 64); err != nil {
			return p, form, &sampling.ParameterError{Field: in.field, Reason: "deve ser numérico"}
		}
		if in.nonNegative {
			if err := checkFormAmount(in.field, *in.dst); err != nil {
				return p, form, err
			}
		}
	}

	if !form.IncludeTravel {
		return p, form, nil
	}

	travel := &sampling.Travel{}
	if travel.DistanceKm, err = parseNonNegativeFloat(form.TravelDistanceKm, "travel_distance_km"); err != nil {
		return p, form, &sampling.ParameterError{Field: "travel_distance_km", Reason: "deve ser um número finito maior ou igual a 0"}
	}
	if travel.CostPerKm, err = parseNonNegativeFloat(form.CostPerKm, "cost_per_km"); err != nil {
		return p, form, &sampling.ParameterError{Field: "cost_per_km", Reason: "deve ser um número finito maior ou igual a 0"}
	}
	if travel.VisitsPerMonth, err = parseNonNegativeInt(form.VisitsPerMonth, "visits_per_month"); err != nil {
		return p, form, &sampling.ParameterError{Field: "visits_per_month", Reason: "deve ser um inteiro maior ou igual a 0"}
	}
	p.Travel = travel

	return p, form, nil
}

func checkFormAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &sampling.ParameterError{Field: field, Reason: "deve ser um número finito"}
	}
	if v < 0 {
		return &sampling.ParameterError{Field: field, Reason: "deve ser maior ou igual a 0"}
	}
	return nil
}
