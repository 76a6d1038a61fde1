package main

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/qc.works/internal/report"
)

type costSettings struct {
	UnitInspectionCost   float64
	RejectedLotExpense   float64
	BusinessDaysPerMonth int
	CostPerKm            float64
	Currency             string
}

type settingsViewData struct {
	baseViewData
	Settings costSettings
}

type supplier struct {
	ID                   int64
	Name                 string
	HistoricalDefectRate float64
	TravelDistanceKm     float64
	VisitsPerMonth       int
	Notes                string
	Active               bool
}

type suppliersViewData struct {
	baseViewData
	Suppliers []supplier
}

func (s *server) handleAdminSettingsForm(w http.ResponseWriter, r *http.Request) {
	settings, err := s.getCostSettings()
	if err != nil {
		s.log.Error("load cost settings", zap.Error(err))
		http.Error(w, "failed to load cost settings", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, http.StatusOK, "admin_settings.html", settingsViewData{Settings: settings})
}

func (s *server) handleAdminSettingsSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	settings, validationErr := parseCostSettingsForm(r)
	if validationErr != nil {
		s.renderTemplate(w, http.StatusBadRequest, "admin_settings.html", settingsViewData{
			baseViewData: baseViewData{ErrorMessage: validationErr.Error()},
			Settings:     settings,
		})
		return
	}

	if err := s.updateCostSettings(settings); err != nil {
		s.log.Error("save cost settings", zap.Error(err))
		http.Error(w, "failed to save cost settings", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, http.StatusOK, "admin_settings.html", settingsViewData{
		baseViewData: baseViewData{SuccessMessage: "Configuração salva com sucesso."},
		Settings:     settings,
	})
}

func (s *server) handleAdminSuppliersForm(w http.ResponseWriter, r *http.Request) {
	suppliers, err := s.listSuppliers(false)
	if err != nil {
		s.log.Error("load suppliers", zap.Error(err))
		http.Error(w, "failed to load suppliers", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, http.StatusOK, "admin_suppliers.html", suppliersViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Suppliers: suppliers,
	})
}

func (s *server) handleAdminSuppliersCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	sup, err := parseSupplierForm(r)
	if err != nil {
		http.Redirect(w, r, "/admin/suppliers?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	if _, err := s.createSupplier(sup); err != nil {
		s.log.Error("create supplier", zap.String("name", sup.Name), zap.Error(err))
		http.Error(w, "failed to create supplier", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/suppliers?success=Fornecedor+criado+com+sucesso", http.StatusSeeOther)
}

func (s *server) handleAdminSuppliersUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid supplier id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	sup, err := parseSupplierForm(r)
	if err != nil {
		http.Redirect(w, r, "/admin/suppliers?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}
	sup.ID = id

	found, err := s.updateSupplier(sup)
	if err != nil {
		s.log.Error("update supplier", zap.Int64("id", id), zap.Error(err))
		http.Error(w, "failed to update supplier", http.StatusInternalServerError)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	http.Redirect(w, r, "/admin/suppliers?success=Fornecedor+atualizado+com+sucesso", http.StatusSeeOther)
}

func parseCostSettingsForm(r *http.Request) (costSettings, error) {
	settings := costSettings{Currency: strings.TrimSpace(r.FormValue("currency"))}
	if settings.Currency == "" {
		settings.Currency = report.DefaultCurrency
	}

	var err error
	if settings.UnitInspectionCost, err = parseNonNegativeFloat(r.FormValue("unit_inspection_cost"), "unit_inspection_cost"); err != nil {
		return settings, err
	}
	if settings.RejectedLotExpense, err = parseNonNegativeFloat(r.FormValue("rejected_lot_expense"), "rejected_lot_expense"); err != nil {
		return settings, err
	}
	if settings.BusinessDaysPerMonth, err = parseNonNegativeInt(r.FormValue("business_days_per_month"), "business_days_per_month"); err != nil {
		return settings, err
	}
	if settings.CostPerKm, err = parseNonNegativeFloat(r.FormValue("cost_per_km"), "cost_per_km"); err != nil {
		return settings, err
	}

	return settings, nil
}

func parseSupplierForm(r *http.Request) (supplier, error) {
	sup := supplier{
		Name:   strings.TrimSpace(r.FormValue("name")),
		Notes:  strings.TrimSpace(r.FormValue("notes")),
		Active: r.FormValue("active") == "1",
	}

	if sup.Name == "" {
		return sup, fmt.Errorf("name é obrigatório")
	}

	var err error
	if sup.HistoricalDefectRate, err = parsePercent(r.FormValue("historical_defect_rate"), "historical_defect_rate"); err != nil {
		return sup, err
	}
	if sup.TravelDistanceKm, err = parseNonNegativeFloat(r.FormValue("travel_distance_km"), "travel_distance_km"); err != nil {
		return sup, err
	}
	if sup.VisitsPerMonth, err = parseNonNegativeInt(r.FormValue("visits_per_month"), "visits_per_month"); err != nil {
		return sup, err
	}

	return sup, nil
}

func parseNonNegativeFloat(raw, field string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s deve ser numérico", field)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%s deve ser um número finito", field)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s deve ser maior ou igual a 0", field)
	}
	return value, nil
}

func parsePercent(raw, field string) (float64, error) {
	value, err := parseNonNegativeFloat(raw, field)
	if err != nil {
		return 0, err
	}
	if value > 100 {
		return 0, fmt.Errorf("%s deve estar entre 0 e 100", field)
	}
	return value, nil
}

func parseNonNegativeInt(raw, field string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s deve ser um número inteiro", field)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s deve ser maior ou igual a 0", field)
	}
	return value, nil
}

func (s *server) getCostSettings() (costSettings, error) {
	var cs costSettings
	err := s.db.QueryRow(`
		SELECT unit_inspection_cost, rejected_lot_expense, business_days_per_month, cost_per_km, currency
		FROM cost_settings
		WHERE id = 1
	`).Scan(
		&cs.UnitInspectionCost,
		&cs.RejectedLotExpense,
		&cs.BusinessDaysPerMonth,
		&cs.CostPerKm,
		&cs.Currency,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return costSettings{}, fmt.Errorf("cost_settings singleton not found")
		}
		return costSettings{}, fmt.Errorf("query cost_settings: %w", err)
	}
	return cs, nil
}

func (s *server) updateCostSettings(cs costSettings) error {
	_, err := s.db.Exec(`
		INSERT INTO cost_settings (
			id,
			unit_inspection_cost,
			rejected_lot_expense,
			business_days_per_month,
			cost_per_km,
			currency
		) VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			unit_inspection_cost = excluded.unit_inspection_cost,
			rejected_lot_expense = excluded.rejected_lot_expense,
			business_days_per_month = excluded.business_days_per_month,
			cost_per_km = excluded.cost_per_km,
			currency = excluded.currency,
			updated_at = CURRENT_TIMESTAMP
	`,
		cs.UnitInspectionCost,
		cs.RejectedLotExpense,
		cs.BusinessDaysPerMonth,
		cs.CostPerKm,
		cs.Currency,
	)
	if err != nil {
		return fmt.Errorf("upsert cost_settings: %w", err)
	}
	return nil
}

func (s *server) listSuppliers(activeOnly bool) ([]supplier, error) {
	rows, err := s.db.Query(`
		SELECT id, name, historical_defect_rate, travel_distance_km, visits_per_month, COALESCE(notes, ''), active
		FROM suppliers
		WHERE (? = 0 OR active)
		ORDER BY name COLLATE NOCASE, id
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]supplier, 0)
	for rows.Next() {
		var sup supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.HistoricalDefectRate, &sup.TravelDistanceKm, &sup.VisitsPerMonth, &sup.Notes, &sup.Active); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, sup)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suppliers: %w", err)
	}

	return suppliers, nil
}

func (s *server) getSupplier(id int64) (supplier, bool, error) {
	var sup supplier
	err := s.db.QueryRow(`
		SELECT id, name, historical_defect_rate, travel_distance_km, visits_per_month, COALESCE(notes, ''), active
		FROM suppliers
		WHERE id = ?
	`, id).Scan(&sup.ID, &sup.Name, &sup.HistoricalDefectRate, &sup.TravelDistanceKm, &sup.VisitsPerMonth, &sup.Notes, &sup.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return supplier{}, false, nil
	}
	if err != nil {
		return supplier{}, false, fmt.Errorf("query supplier %d: %w", id, err)
	}
	return sup, true, nil
}

func (s *server) createSupplier(sup supplier) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO suppliers (name, historical_defect_rate, travel_distance_km, visits_per_month, notes, active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sup.Name, sup.HistoricalDefectRate, sup.TravelDistanceKm, sup.VisitsPerMonth, sup.Notes, sup.Active)
	if err != nil {
		return 0, fmt.Errorf("insert supplier: %w", err)
	}
	return result.LastInsertId()
}

func (s *server) updateSupplier(sup supplier) (bool, error) {
	result, err := s.db.Exec(`
		UPDATE suppliers
		SET
			name = ?,
			historical_defect_rate = ?,
			travel_distance_km = ?,
			visits_per_month = ?,
			notes = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, sup.Name, sup.HistoricalDefectRate, sup.TravelDistanceKm, sup.VisitsPerMonth, sup.Notes, sup.Active, sup.ID)
	if err != nil {
		return false, fmt.Errorf("update supplier: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update supplier rows affected: %w", err)
	}
	return affected > 0, nil
}
