package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/Simplici0/qc.works/internal/sampling"
)

func scenarioResult() sampling.Result {
	return sampling.Result{
		SupplierRisk:           0.046553185735932145,
		ConsumerRisk:           0.10093654640578877,
		AcceptanceProbability:  0.7844188869753551,
		AverageTotalInspection: 278.3346239826733,
		InspectionCost:         8350.038719480199,
		RejectedLotCost:        2155.811130246449,
		TotalCost:              10505.849849726648,
	}
}

func TestNew_FormatsFixedPrecision(t *testing.T) {
	v := New(scenarioResult(), "", false)

	checks := map[string][2]string{
		"SupplierRisk":           {v.SupplierRisk, "0.0466"},
		"ConsumerRisk":           {v.ConsumerRisk, "0.1009"},
		"AcceptanceProbability":  {v.AcceptanceProbability, "0.78"},
		"AverageTotalInspection": {v.AverageTotalInspection, "278.33"},
		"InspectionCost":         {v.InspectionCost, "R$ 8,350.04"},
		"RejectedLotCost":        {v.RejectedLotCost, "R$ 2,155.81"},
		"TravelCost":             {v.TravelCost, "R$ 0.00"},
		"TotalCost":              {v.TotalCost, "R$ 10,505.85"},
		"Verdict":                {v.Verdict, verdictRejected},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Fatalf("%s = %q, want %q", name, c[0], c[1])
		}
	}
}

func TestNew_AcceptedVerdictAndCurrency(t *testing.T) {
	r := scenarioResult()
	r.LotAccepted = true

	v := New(r, "US$", true)
	if v.Verdict != verdictAccepted || !v.LotAccepted {
		t.Fatalf("unexpected verdict: %+v", v)
	}
	if v.TotalCost != "US$ 10,505.85" {
		t.Fatalf("TotalCost = %q", v.TotalCost)
	}
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "R$ 0.00"},
		{0.005, "R$ 0.01"},
		{999.994, "R$ 999.99"},
		{1234567.891, "R$ 1,234,567.89"},
		{-42.5, "R$ -42.50"},
	}
	for _, tt := range tests {
		if got := Money("R$", tt.in); got != tt.want {
			t.Fatalf("Money(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFixed_RoundsHalfAwayFromZero(t *testing.T) {
	if got := Fixed(0.12345, 4); got != "0.1235" {
		t.Fatalf("Fixed(0.12345, 4) = %q", got)
	}
	if got := Fixed(1, 2); got != "1.00" {
		t.Fatalf("Fixed(1, 2) = %q", got)
	}
}

func TestNonFiniteValuesRenderWithoutPanicking(t *testing.T) {
	tests := []struct {
		in        float64
		wantFixed string
		wantMoney string
	}{
		{math.NaN(), "NaN", "R$ NaN"},
		{math.Inf(1), "∞", "R$ ∞"},
		{math.Inf(-1), "-∞", "R$ -∞"},
	}
	for _, tt := range tests {
		if got := Fixed(tt.in, 2); got != tt.wantFixed {
			t.Fatalf("Fixed(%v) = %q, want %q", tt.in, got, tt.wantFixed)
		}
		if got := Money("R$", tt.in); got != tt.wantMoney {
			t.Fatalf("Money(%v) = %q, want %q", tt.in, got, tt.wantMoney)
		}
	}
}

func TestNew_OverflowingCosts(t *testing.T) {
	base := sampling.Parameters{
		LotSize:                   1000,
		SampleSize:                80,
		MaxAcceptanceNumber:       2,
		AcceptableQualityLevel:    1,
		TolerableDefectPercentage: 6.5,
		HistoricalDefectRate:      2,
		RejectedLotExpense:        500,
		BusinessDaysPerMonth:      20,
	}

	for _, unitCost := range []float64{1e307, 1e308, math.Inf(1), math.NaN()} {
		params := base
		params.UnitInspectionCost = unitCost

		result, err := sampling.Compute(params)
		if err != nil {
			t.Fatalf("unit cost %v: Compute: %v", unitCost, err)
		}
		v := New(result, "R$", false)
		if v.InspectionCost != "R$ ∞" && v.InspectionCost != "R$ NaN" {
			t.Fatalf("unit cost %v: InspectionCost = %q", unitCost, v.InspectionCost)
		}

		var buf bytes.Buffer
		if err := WriteText(&buf, params, v); err != nil {
			t.Fatalf("unit cost %v: WriteText: %v", unitCost, err)
		}
	}
}

func TestWriteText_IncludesSectionsAndTravel(t *testing.T) {
	params := sampling.Parameters{
		LotSize:                   1000,
		SampleSize:                80,
		MaxAcceptanceNumber:       2,
		AcceptableQualityLevel:    1,
		TolerableDefectPercentage: 6.5,
		HistoricalDefectRate:      2,
		UnitInspectionCost:        1.5,
		RejectedLotExpense:        500,
		BusinessDaysPerMonth:      20,
		Travel:                    &sampling.Travel{DistanceKm: 35, CostPerKm: 1.2, VisitsPerMonth: 4},
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, params, New(scenarioResult(), "R$", true)); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	body := buf.String()
	for _, expected := range []string{
		"Risco do fornecedor (α): 0.0466",
		"Custo total: R$ 10,505.85",
		"Custo de deslocamento: R$ 0.00",
		"Lote passou na inspeção? Não passou na inspeção",
		"PTDL: 6.5%",
		"Visitas por mês: 4",
	} {
		if !strings.Contains(body, expected) {
			t.Fatalf("expected body to contain %q, got: %s", expected, body)
		}
	}
}

func TestWriteText_OmitsTravelWhenAbsent(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampling.Parameters{}, New(scenarioResult(), "R$", false)); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if strings.Contains(buf.String(), "deslocamento") || strings.Contains(buf.String(), "Visitas") {
		t.Fatalf("travel lines rendered without travel inputs: %s", buf.String())
	}
}
