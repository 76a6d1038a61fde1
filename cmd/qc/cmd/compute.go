package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/qc.works/internal/planfile"
	"github.com/Simplici0/qc.works/internal/report"
	"github.com/Simplici0/qc.works/internal/sampling"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type computeOptions struct {
	file     string
	format   string
	currency string

	lotSize         int
	sampleSize      int
	maxAcceptance   int
	aql             float64
	ptdl            float64
	history         float64
	unitCost        float64
	rejectedExpense float64
	businessDays    int
	travelKm        float64
	costPerKm       float64
	visitsPerMonth  int
}

type computeOutput struct {
	Parameters sampling.Parameters `json:"parameters"`
	Result     sampling.Result     `json:"result"`
}

func newComputeCmd(root *rootOptions) *cobra.Command {
	opts := &computeOptions{}

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute risks and costs of a sampling plan",
		Long: `Compute evaluates one sampling plan. Parameters come from flags, from a
YAML plan file (--file), or both; flags given explicitly override the file.
Travel cost is included when the file has a travel block or any travel flag
is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(cmd, root.log, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "YAML plan file")
	f.StringVar(&opts.format, "format", formatText, "output format (text, json)")
	f.StringVar(&opts.currency, "currency", report.DefaultCurrency, "currency prefix for text output")

	f.IntVar(&opts.lotSize, "lot-size", 0, "units in the lot (N)")
	f.IntVar(&opts.sampleSize, "sample-size", 0, "units inspected (n)")
	f.IntVar(&opts.maxAcceptance, "max-acceptance", 0, "maximum defectives accepted (c)")
	f.Float64Var(&opts.aql, "aql", 0, "acceptable quality level (%)")
	f.Float64Var(&opts.ptdl, "ptdl", 0, "lot tolerance percent defective (%)")
	f.Float64Var(&opts.history, "history", 0, "supplier historical defect rate (%)")
	f.Float64Var(&opts.unitCost, "unit-cost", 0, "inspection cost per unit")
	f.Float64Var(&opts.rejectedExpense, "rejected-expense", 0, "expense per rejected lot")
	f.IntVar(&opts.businessDays, "business-days", 0, "business days per month")
	f.Float64Var(&opts.travelKm, "travel-km", 0, "distance to the supplier (km)")
	f.Float64Var(&opts.costPerKm, "cost-per-km", 0, "travel cost per km")
	f.IntVar(&opts.visitsPerMonth, "visits", 0, "supplier visits per month")

	return cmd
}

func runCompute(cmd *cobra.Command, log *zap.Logger, opts *computeOptions) error {
	if opts.format != formatText && opts.format != formatJSON {
		return fmt.Errorf("unknown format %q (want %s or %s)", opts.format, formatText, formatJSON)
	}

	params, err := opts.parameters(cmd)
	if err != nil {
		return err
	}
	if err := params.ValidateCosts(); err != nil {
		return err
	}
	log.Debug("computing plan",
		zap.Int("lot_size", params.LotSize),
		zap.Int("sample_size", params.SampleSize),
		zap.Int("max_acceptance_number", params.MaxAcceptanceNumber),
		zap.Bool("travel", params.Travel != nil),
	)

	result, err := sampling.Compute(params)
	if err != nil {
		return err
	}
	log.Debug("plan computed",
		zap.Float64("acceptance_probability", result.AcceptanceProbability),
		zap.Float64("total_cost", result.TotalCost),
		zap.Bool("lot_accepted", result.LotAccepted),
	)

	out := cmd.OutOrStdout()
	if opts.format == formatJSON {
		if !result.IsFinite() {
			return errors.New("result out of range: cost inputs are too large for JSON output")
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(computeOutput{Parameters: params, Result: result})
	}
	return report.WriteText(out, params, report.New(result, opts.currency, params.Travel != nil))
}

// parameters merges the plan file, if any, with the flags set on cmd.
func (o *computeOptions) parameters(cmd *cobra.Command) (sampling.Parameters, error) {
	var params sampling.Parameters
	if o.file != "" {
		var err error
		if params, err = planfile.Load(o.file); err != nil {
			return sampling.Parameters{}, err
		}
	}

	flags := cmd.Flags()
	use := func(name string) bool { return o.file == "" || flags.Changed(name) }

	ints := []struct {
		name string
		src  int
		dst  *int
	}{
		{"lot-size", o.lotSize, &params.LotSize},
		{"sample-size", o.sampleSize, &params.SampleSize},
		{"max-acceptance", o.maxAcceptance, &params.MaxAcceptanceNumber},
		{"business-days", o.businessDays, &params.BusinessDaysPerMonth},
	}
	for _, in := range ints {
		if use(in.name) {
			*in.dst = in.src
		}
	}

	floats := []struct {
		name string
		src  float64
		dst  *float64
	}{
		{"aql", o.aql, &params.AcceptableQualityLevel},
		{"ptdl", o.ptdl, &params.TolerableDefectPercentage},
		{"history", o.history, &params.HistoricalDefectRate},
		{"unit-cost", o.unitCost, &params.UnitInspectionCost},
		{"rejected-expense", o.rejectedExpense, &params.RejectedLotExpense},
	}
	for _, in := range floats {
		if use(in.name) {
			*in.dst = in.src
		}
	}

	if flags.Changed("travel-km") || flags.Changed("cost-per-km") || flags.Changed("visits") {
		travel := sampling.Travel{}
		if params.Travel != nil {
			travel = *params.Travel
		}
		if flags.Changed("travel-km") {
			travel.DistanceKm = o.travelKm
		}
		if flags.Changed("cost-per-km") {
			travel.CostPerKm = o.costPerKm
		}
		if flags.Changed("visits") {
			travel.VisitsPerMonth = o.visitsPerMonth
		}
		params.Travel = &travel
	}

	return params, nil
}
