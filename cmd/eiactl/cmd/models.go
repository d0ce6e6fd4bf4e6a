package cmd

import (
	"fmt"
	"text/tabwriter"

	"eia-drafter/internal/config"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the generation service offers for text generation",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, sync := newLogger()
		defer sync()

		container, err := config.NewContainerWithConfig(loadConfig(), log)
		if err != nil {
			return err
		}
		defer container.Close()

		models, err := container.ReportService.Models(cmd.Context())
		if err != nil {
			return fmt.Errorf("list models: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDISPLAY NAME")
		for _, m := range models {
			fmt.Fprintf(w, "%s\t%s\n", m.Name, m.DisplayName)
		}
		return w.Flush()
	},
}
