package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"riserroute/export"
)

// NewPlanCmd creates the plan command
func NewPlanCmd() *cobra.Command {
	var (
		output   string
		format   string
		sanitary bool
	)

	cmd := &cobra.Command{
		Use:   "plan <input>",
		Short: "Route every connector of an input document",
		Long: `Route every connector of an input document (JSON, or YAML by .yaml/.yml extension)
and write the committed routes, failed connectors, remaining target capacity and a
summary. Connectors that cannot be routed are listed with a reason code; they do not
make the command fail.`,
		Args: cobra.ExactArgs(1),
		Example: `  riserroute plan building.json
  riserroute plan building.yaml --sanitary -o routes.json
  riserroute plan building.json --format text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			exporter, err := export.NewExporter(f)
			if err != nil {
				return err
			}

			res, err := runPlan(cmd, args[0], sanitary)
			if err != nil {
				return err
			}
			text, err := exporter.Export(res.Output)
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}
			if err := os.WriteFile(output, []byte(text+"\n"), 0o644); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			s := res.Output.Summary
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s routes (%s failed, %s ft) to %s in %s ms\n",
				humanize.Comma(int64(len(res.Output.Routes))), humanize.Comma(int64(s.Failed)),
				humanize.FtoaWithDigits(s.TotalLength, 1), output, humanize.Comma(res.Output.ElapsedMS))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, yaml or text")
	cmd.Flags().BoolVar(&sanitary, "sanitary", false, "Slope gravity drains and soften offset jogs")
	return cmd
}
