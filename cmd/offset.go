package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rdti-cli/internal/offset"
)

var (
	offsetNotional    float64
	offsetTurnover    float64
	offsetExpenditure float64
	offsetTaxRate     float64
	offsetBaseRate    bool
	offsetRSP         float64
	offsetCRC         float64
)

var offsetCmd = &cobra.Command{
	Use:   "offset",
	Short: "R&D tax offset calculations",
}

var offsetCalcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate the tax offset for one application",
	RunE: func(cmd *cobra.Command, args []string) error {
		if offsetNotional < 0 || offsetTurnover < 0 || offsetExpenditure < 0 {
			return eris.New("monetary figures must be non-negative")
		}

		result := offset.Calculate(offset.Input{
			NotionalDeductions: offsetNotional,
			AggregatedTurnover: offsetTurnover,
			TotalExpenditure:   offsetExpenditure,
			CompanyTaxRate:     offsetTaxRate,
			IsBaseRateEntity:   offsetBaseRate,
		})
		return printJSON(cmd, result)
	},
}

var offsetThresholdCmd = &cobra.Command{
	Use:   "threshold",
	Short: "Test the $20,000 minimum expenditure threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		eligibility := offset.MeetsMinimumThreshold(offsetNotional, offsetRSP, offsetCRC)
		return printJSON(cmd, eligibility)
	},
}

var offsetDeadlineCmd = &cobra.Command{
	Use:   "deadline <income-year-end>",
	Short: "Show the registration deadline for an income year (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yearEnd, err := time.Parse("2006-01-02", args[0])
		if err != nil {
			return eris.Wrap(err, "income year end must be YYYY-MM-DD")
		}
		deadline := offset.RegistrationDeadline(yearEnd)
		return printJSON(cmd, map[string]string{
			"income_year_end": yearEnd.Format("2006-01-02"),
			"deadline":        deadline.Format("2006-01-02"),
		})
	},
}

// printJSON writes indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode output")
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func init() {
	offsetCalcCmd.Flags().Float64Var(&offsetNotional, "notional", 0, "notional deductions (AUD)")
	offsetCalcCmd.Flags().Float64Var(&offsetTurnover, "turnover", 0, "aggregated turnover (AUD)")
	offsetCalcCmd.Flags().Float64Var(&offsetExpenditure, "expenditure", 0, "total expenditure (AUD)")
	offsetCalcCmd.Flags().Float64Var(&offsetTaxRate, "tax-rate", 0, "company tax rate override (e.g. 0.25)")
	offsetCalcCmd.Flags().BoolVar(&offsetBaseRate, "base-rate-entity", false, "treat the entity as a base rate entity")
	offsetCalcCmd.MarkFlagRequired("notional")
	offsetCalcCmd.MarkFlagRequired("turnover")

	offsetThresholdCmd.Flags().Float64Var(&offsetNotional, "notional", 0, "notional deductions (AUD)")
	offsetThresholdCmd.Flags().Float64Var(&offsetRSP, "rsp", 0, "RSP expenditure (AUD)")
	offsetThresholdCmd.Flags().Float64Var(&offsetCRC, "crc", 0, "CRC contribution expenditure (AUD)")
	offsetThresholdCmd.MarkFlagRequired("notional")

	offsetCmd.AddCommand(offsetCalcCmd)
	offsetCmd.AddCommand(offsetThresholdCmd)
	offsetCmd.AddCommand(offsetDeadlineCmd)
	rootCmd.AddCommand(offsetCmd)
}
