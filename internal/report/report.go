// Package report renders a calculation result with the fixed precision used
// by every shell: risks to 4 decimals, ITM and Pa to 2, money to 2 with a
// currency prefix.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/qc.works/internal/sampling"
)

// DefaultCurrency is the prefix used when none is configured.
const DefaultCurrency = "R$"

const (
	verdictAccepted = "Sim, passou na inspeção"
	verdictRejected = "Não passou na inspeção"
)

// View holds the display strings of a sampling.Result.
type View struct {
	SupplierRisk           string
	ConsumerRisk           string
	AcceptanceProbability  string
	AverageTotalInspection string
	InspectionCost         string
	RejectedLotCost        string
	TravelCost             string
	TotalCost              string
	HasTravel              bool
	LotAccepted            bool
	Verdict                string
}

// New formats r. An empty currency falls back to DefaultCurrency.
func New(r sampling.Result, currency string, hasTravel bool) View {
	if currency == "" {
		currency = DefaultCurrency
	}

	verdict := verdictRejected
	if r.LotAccepted {
		verdict = verdictAccepted
	}

	return View{
		SupplierRisk:           Fixed(r.SupplierRisk, 4),
		ConsumerRisk:           Fixed(r.ConsumerRisk, 4),
		AcceptanceProbability:  Fixed(r.AcceptanceProbability, 2),
		AverageTotalInspection: Fixed(r.AverageTotalInspection, 2),
		InspectionCost:         Money(currency, r.InspectionCost),
		RejectedLotCost:        Money(currency, r.RejectedLotCost),
		TravelCost:             Money(currency, r.TravelCost),
		TotalCost:              Money(currency, r.TotalCost),
		HasTravel:              hasTravel,
		LotAccepted:            r.LotAccepted,
		Verdict:                verdict,
	}
}

// Fixed rounds v half away from zero and renders exactly places decimals.
// NaN and infinities render as "NaN", "∞" and "-∞".
func Fixed(v float64, places int32) string {
	if s, ok := nonFinite(v); ok {
		return s
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// Money renders v as "<currency> 1,234.56".
func Money(currency string, v float64) string {
	if s, ok := nonFinite(v); ok {
		return currency + " " + s
	}
	s := decimal.NewFromFloat(v).StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		// Beyond int64; skip grouping.
		return currency + " " + sign + s
	}
	return currency + " " + sign + humanize.Comma(n) + "." + frac
}

func nonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "∞", true
	case math.IsInf(v, -1):
		return "-∞", true
	}
	return "", false
}

// WriteText writes a plain-text summary of the parameters and the view.
func WriteText(w io.Writer, p sampling.Parameters, v View) error {
	var b strings.Builder

	b.WriteString("Resultado do cálculo\n\n")
	b.WriteString("Riscos:\n")
	fmt.Fprintf(&b, "  Risco do fornecedor (α): %s\n", v.SupplierRisk)
	fmt.Fprintf(&b, "  Risco do consumidor (β): %s\n", v.ConsumerRisk)
	fmt.Fprintf(&b, "  Inspeção Total Média (ITM): %s\n", v.AverageTotalInspection)
	fmt.Fprintf(&b, "  Probabilidade de Aceitação (Pa): %s\n", v.AcceptanceProbability)

	b.WriteString("\nCustos:\n")
	fmt.Fprintf(&b, "  Custo de inspeção: %s\n", v.InspectionCost)
	fmt.Fprintf(&b, "  Custo de despesas: %s\n", v.RejectedLotCost)
	if v.HasTravel {
		fmt.Fprintf(&b, "  Custo de deslocamento: %s\n", v.TravelCost)
	}
	fmt.Fprintf(&b, "  Custo total: %s\n", v.TotalCost)

	fmt.Fprintf(&b, "\nLote passou na inspeção? %s\n", v.Verdict)

	b.WriteString("\nParâmetros:\n")
	fmt.Fprintf(&b, "  Tamanho do lote: %d\n", p.LotSize)
	fmt.Fprintf(&b, "  Tamanho da amostra: %d\n", p.SampleSize)
	fmt.Fprintf(&b, "  Aceitação máxima: %d\n", p.MaxAcceptanceNumber)
	fmt.Fprintf(&b, "  NQA: %s%%\n", humanize.Ftoa(p.AcceptableQualityLevel))
	fmt.Fprintf(&b, "  PTDL: %s%%\n", humanize.Ftoa(p.TolerableDefectPercentage))
	fmt.Fprintf(&b, "  Histórico de defeituosos: %s%%\n", humanize.Ftoa(p.HistoricalDefectRate))
	fmt.Fprintf(&b, "  Custo unitário de inspeção: %s\n", humanize.Ftoa(p.UnitInspectionCost))
	fmt.Fprintf(&b, "  Despesa por lote reprovado: %s\n", humanize.Ftoa(p.RejectedLotExpense))
	fmt.Fprintf(&b, "  Dias úteis no mês: %d\n", p.BusinessDaysPerMonth)
	if p.Travel != nil {
		fmt.Fprintf(&b, "  Distância (km): %s\n", humanize.Ftoa(p.Travel.DistanceKm))
		fmt.Fprintf(&b, "  Custo por km: %s\n", humanize.Ftoa(p.Travel.CostPerKm))
		fmt.Fprintf(&b, "  Visitas por mês: %d\n", p.Travel.VisitsPerMonth)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
