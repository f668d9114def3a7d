package main

import (
	"github.com/spf13/cobra"
)

var (
	overviewOrganisation string
	overviewClient       string
)

var complianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "ATO compliance checks over client applications",
}

var complianceRunCmd = &cobra.Command{
	Use:   "run <application-id>",
	Short: "Run the full check battery for one application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initCompliance(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := env.Engine.Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, summary)
	},
}

var complianceOverviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Aggregate check results across an organisation",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initCompliance(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		overview, err := env.Engine.Overview(cmd.Context(), overviewOrganisation, overviewClient)
		if err != nil {
			return err
		}
		return printJSON(cmd, overview)
	},
}

var complianceListCmd = &cobra.Command{
	Use:   "list <application-id>",
	Short: "Show the stored checks for an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initCompliance(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		checks, err := env.Store.ListChecks(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, checks)
	},
}

func init() {
	complianceOverviewCmd.Flags().StringVar(&overviewOrganisation, "org", "", "organisation ID")
	complianceOverviewCmd.Flags().StringVar(&overviewClient, "client", "", "restrict to one client ID")
	complianceOverviewCmd.MarkFlagRequired("org")

	complianceCmd.AddCommand(complianceRunCmd)
	complianceCmd.AddCommand(complianceOverviewCmd)
	complianceCmd.AddCommand(complianceListCmd)
	rootCmd.AddCommand(complianceCmd)
}
