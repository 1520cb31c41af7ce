package commands

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"riserroute/preview"
)

// NewViewCmd creates the view command
func NewViewCmd() *cobra.Command {
	var (
		domain   string
		scale    float64
		printOut bool
		sanitary bool
		legend   bool
	)

	cmd := &cobra.Command{
		Use:   "view <input>",
		Short: "Plan an input document and draw its domains",
		Long: `Plan an input document and draw each routing domain as a character grid:
'#' non-penetrable obstacles, '+' penetrable ones, 'o' connectors, '@' targets,
and routes by trade letter. Without --print the domains are shown in a terminal
viewer (n/p to page, arrows to scroll, q to quit).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runPlan(cmd, args[0], sanitary)
			if err != nil {
				return err
			}
			pages := preview.Pages(res.Scene(), preview.Options{CellsPerUnit: scale})
			if len(pages) == 0 {
				return fmt.Errorf("input has no drawable domains")
			}
			if domain != "" {
				found := false
				for _, p := range pages {
					found = found || p.DomainID == domain
				}
				if !found {
					return fmt.Errorf("domain %s not found", domain)
				}
			}

			if printOut {
				out := cmd.OutOrStdout()
				for _, p := range pages {
					if domain != "" && p.DomainID != domain {
						continue
					}
					fmt.Fprintf(out, "%s\n%s\n\n", p.Title, p.Matrix.String())
				}
				if legend {
					fmt.Fprintln(out, strings.Join(preview.Legend(), "\n"))
				}
				return nil
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("opening terminal: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("opening terminal: %w", err)
			}
			defer screen.Fini()

			v := preview.NewViewer(screen, pages)
			if domain != "" {
				v.Show(domain)
			}
			return v.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain to show (default: all)")
	cmd.Flags().Float64Var(&scale, "scale", 1, "Character cells per foot")
	cmd.Flags().BoolVar(&printOut, "print", false, "Print the grids instead of opening the viewer")
	cmd.Flags().BoolVar(&sanitary, "sanitary", false, "Slope gravity drains and soften offset jogs")
	cmd.Flags().BoolVar(&legend, "legend", false, "Print the glyph legend after the grids")
	return cmd
}
