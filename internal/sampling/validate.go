package sampling

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter is matched by every validation failure returned by
// Compute and Parameters.Validate.
var ErrInvalidParameter = errors.New("invalid parameter")

// ParameterError reports which input violated a domain constraint.
// Field uses the snake_case name shared by the form, JSON and YAML inputs.
type ParameterError struct {
	Field  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidParameter, e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidParameter.
func (e *ParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// Validate checks the constraints the binomial model needs to be well formed.
func (p Parameters) Validate() error {
	if p.LotSize < 0 {
		return &ParameterError{Field: "lot_size", Reason: "must be greater than or equal to 0"}
	}
	if p.SampleSize < 0 {
		return &ParameterError{Field: "sample_size", Reason: "must be greater than or equal to 0"}
	}
	if p.MaxAcceptanceNumber < 0 {
		return &ParameterError{Field: "max_acceptance_number", Reason: "must be greater than or equal to 0"}
	}
	if p.SampleSize > p.LotSize {
		return &ParameterError{Field: "sample_size", Reason: fmt.Sprintf("must not exceed lot_size (%d)", p.LotSize)}
	}
	if p.MaxAcceptanceNumber > p.SampleSize {
		return &ParameterError{Field: "max_acceptance_number", Reason: fmt.Sprintf("must not exceed sample_size (%d)", p.SampleSize)}
	}

	percents := []struct {
		field string
		value float64
	}{
		{"acceptable_quality_level", p.AcceptableQualityLevel},
		{"tolerable_defect_percentage", p.TolerableDefectPercentage},
		{"historical_defect_rate", p.HistoricalDefectRate},
	}
	for _, pct := range percents {
		// Written negated so NaN fails too.
		if !(pct.value >= 0 && pct.value <= 100) {
			return &ParameterError{Field: pct.field, Reason: "must be between 0 and 100"}
		}
	}

	return nil
}

type fieldValue struct {
	field string
	value float64
}

// ValidateCosts checks that the cost, period and travel inputs are finite
// and non-negative. Compute does not call it; callers taking user input do.
func (p Parameters) ValidateCosts() error {
	amounts := []fieldValue{
		{"unit_inspection_cost", p.UnitInspectionCost},
		{"rejected_lot_expense", p.RejectedLotExpense},
	}
	if p.Travel != nil {
		amounts = append(amounts,
			fieldValue{"travel.distance_km", p.Travel.DistanceKm},
			fieldValue{"travel.cost_per_km", p.Travel.CostPerKm},
		)
	}
	for _, a := range amounts {
		if err := CheckAmount(a.field, a.value); err != nil {
			return err
		}
	}

	if p.BusinessDaysPerMonth < 0 {
		return &ParameterError{Field: "business_days_per_month", Reason: "must be greater than or equal to 0"}
	}
	if p.Travel != nil && p.Travel.VisitsPerMonth < 0 {
		return &ParameterError{Field: "travel.visits_per_month", Reason: "must be greater than or equal to 0"}
	}
	return nil
}

// CheckAmount rejects NaN, infinite and negative values of field.
func CheckAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ParameterError{Field: field, Reason: "must be a finite number"}
	}
	if v < 0 {
		return &ParameterError{Field: field, Reason: "must be greater than or equal to 0"}
	}
	return nil
}
