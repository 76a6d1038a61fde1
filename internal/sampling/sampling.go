// Package sampling computes acceptance-sampling risks and inspection costs
// for a single-sampling plan under a binomial defect model.
package sampling

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Travel holds the optional inputs of the inspection-site travel cost.
type Travel struct {
	DistanceKm     float64 `json:"distance_km" yaml:"distance_km"`
	CostPerKm      float64 `json:"cost_per_km" yaml:"cost_per_km"`
	VisitsPerMonth int     `json:"visits_per_month" yaml:"visits_per_month"`
}

// Cost returns the monthly travel cost. A nil Travel costs nothing.
func (t *Travel) Cost() float64 {
	if t == nil {
		return 0
	}
	return t.DistanceKm * t.CostPerKm * float64(t.VisitsPerMonth)
}

// Parameters represents the lot, sample and cost inputs of one calculation.
// Percentages are expressed in the 0-100 range.
type Parameters struct {
	LotSize                   int     `json:"lot_size" yaml:"lot_size"`
	SampleSize                int     `json:"sample_size" yaml:"sample_size"`
	UnitInspectionCost        float64 `json:"unit_inspection_cost" yaml:"unit_inspection_cost"`
	RejectedLotExpense        float64 `json:"rejected_lot_expense" yaml:"rejected_lot_expense"`
	AcceptableQualityLevel    float64 `json:"acceptable_quality_level" yaml:"acceptable_quality_level"`
	TolerableDefectPercentage float64 `json:"tolerable_defect_percentage" yaml:"tolerable_defect_percentage"`
	MaxAcceptanceNumber       int     `json:"max_acceptance_number" yaml:"max_acceptance_number"`
	HistoricalDefectRate      float64 `json:"historical_defect_rate" yaml:"historical_defect_rate"`
	BusinessDaysPerMonth      int     `json:"business_days_per_month" yaml:"business_days_per_month"`
	Travel                    *Travel `json:"travel,omitempty" yaml:"travel,omitempty"`
}

// Result contains the risks, inspection volume, cost breakdown and verdict
// derived from a set of Parameters.
type Result struct {
	SupplierRisk           float64 `json:"supplier_risk"`
	ConsumerRisk           float64 `json:"consumer_risk"`
	AcceptanceProbability  float64 `json:"acceptance_probability"`
	AverageTotalInspection float64 `json:"average_total_inspection"`
	InspectionCost         float64 `json:"inspection_cost"`
	RejectedLotCost        float64 `json:"rejected_lot_cost"`
	TravelCost             float64 `json:"travel_cost"`
	TotalCost              float64 `json:"total_cost"`
	LotAccepted            bool    `json:"lot_accepted"`
}

// IsFinite reports whether every numeric field of r is finite. Very large
// cost inputs can overflow the cost fields to +Inf.
func (r Result) IsFinite() bool {
	for _, v := range []float64{
		r.SupplierRisk, r.ConsumerRisk, r.AcceptanceProbability, r.AverageTotalInspection,
		r.InspectionCost, r.RejectedLotCost, r.TravelCost, r.TotalCost,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// BinomialCDF returns P(X <= k) for X ~ Binomial(n, p).
//
// A zero-sized sample never observes a defective, so CDF(k; 0, p) = 1 for
// every k >= 0.
func BinomialCDF(k, n int, p float64) float64 {
	if k < 0 {
		return 0
	}
	if n == 0 || k >= n {
		return 1
	}
	return clamp01(distuv.Binomial{N: float64(n), P: p}.CDF(float64(k)))
}

// clamp01 absorbs rounding noise from the incomplete beta evaluation.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AcceptanceProbability returns the probability that a sample of n units
// drawn from a process with the given defect percentage shows at most c
// defectives.
func AcceptanceProbability(c, n int, defectPercent float64) float64 {
	return BinomialCDF(c, n, defectPercent/100.0)
}

// AverageTotalInspection returns the expected number of units inspected per
// lot when rejected lots are inspected in full.
func AverageTotalInspection(sampleSize, lotSize int, pa float64) float64 {
	return float64(sampleSize) + (1.0-pa)*float64(lotSize-sampleSize)
}

// Compute validates p and derives the risk and cost figures of the plan.
// It returns an error wrapping ErrInvalidParameter when p is out of domain.
func Compute(p Parameters) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	supplierRisk := 1.0 - AcceptanceProbability(p.MaxAcceptanceNumber, p.SampleSize, p.AcceptableQualityLevel)
	consumerRisk := AcceptanceProbability(p.MaxAcceptanceNumber, p.SampleSize, p.TolerableDefectPercentage)
	pa := AcceptanceProbability(p.MaxAcceptanceNumber, p.SampleSize, p.HistoricalDefectRate)

	itm := AverageTotalInspection(p.SampleSize, p.LotSize, pa)
	days := float64(p.BusinessDaysPerMonth)

	inspectionCost := days * itm * p.UnitInspectionCost
	rejectedLotCost := days * (1.0 - pa) * p.RejectedLotExpense
	travelCost := p.Travel.Cost()

	return Result{
		SupplierRisk:           supplierRisk,
		ConsumerRisk:           consumerRisk,
		AcceptanceProbability:  pa,
		AverageTotalInspection: itm,
		InspectionCost:         inspectionCost,
		RejectedLotCost:        rejectedLotCost,
		TravelCost:             travelCost,
		TotalCost:              inspectionCost + rejectedLotCost + travelCost,
		// Ties reject the lot.
		LotAccepted: pa > 1.0-p.TolerableDefectPercentage/100.0,
	}, nil
}
