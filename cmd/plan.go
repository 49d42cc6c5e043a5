package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// planCmd prints the steps a bootstrap would run, in order, without running them.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the installation steps without running them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		plan := newInstaller(cfg).Plan()

		out := cmd.OutOrStdout()
		if len(plan.Preflight) > 0 {
			fmt.Fprintln(out, "Preflight")
			for _, step := range plan.Preflight {
				fmt.Fprintf(out, "  - %s\n", step.Name)
			}
		}
		for i, phase := range plan.Phases {
			fmt.Fprintf(out, "%d. %s\n", i+1, phase.Name)
			for _, step := range phase.Steps {
				fmt.Fprintf(out, "  - %s\n", step.Name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
