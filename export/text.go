package export

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"riserroute/core"
)

// TextExporter renders a routing result as a plain text report.
type TextExporter struct{}

// NewTextExporter creates a new text exporter
func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

func feet(v float64) string {
	return humanize.FtoaWithDigits(v, 2) + " ft"
}

// Export writes the summary, per-trade table, failures and diagnostics.
func (e *TextExporter) Export(out *Output) (string, error) {
	var sb strings.Builder
	s := out.Summary

	fmt.Fprintf(&sb, "Routes committed: %s of %s attempted (%s prior)\n",
		humanize.Comma(int64(s.Committed)), humanize.Comma(int64(s.Attempted)), humanize.Comma(int64(s.Prior)))
	fmt.Fprintf(&sb, "Failed: %s   Retries: %s   Expansions: %s\n",
		humanize.Comma(int64(s.Failed)), humanize.Comma(int64(s.Retries)), humanize.Comma(int64(s.Expansions)))
	fmt.Fprintf(&sb, "Total length: %s   Elapsed: %s ms\n", feet(s.TotalLength), humanize.Comma(out.ElapsedMS))
	fmt.Fprintf(&sb, "Graph: %s domains, %s nodes, %s edges, %s transitions\n",
		humanize.Comma(int64(out.Graph.Domains)), humanize.Comma(int64(out.Graph.Nodes)),
		humanize.Comma(int64(out.Graph.Edges)), humanize.Comma(int64(out.Graph.Transitions)))

	if len(s.ByTrade) > 0 {
		trades := make([]core.SystemType, 0, len(s.ByTrade))
		for t := range s.ByTrade {
			trades = append(trades, t)
		}
		sort.Slice(trades, func(i, j int) bool { return trades[i] < trades[j] })

		sb.WriteString("\n")
		tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TRADE\tATTEMPTED\tCOMMITTED\tFAILED\tLENGTH")
		for _, t := range trades {
			ts := s.ByTrade[t]
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", t, ts.Attempted, ts.Committed, ts.Failed, feet(ts.Length))
		}
		if err := tw.Flush(); err != nil {
			return "", err
		}
	}

	if len(out.Failed) > 0 {
		sb.WriteString("\nFailures:\n")
		tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
		for _, f := range out.Failed {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", f.ConnectorID, f.SystemType, f.Reason, f.Detail)
		}
		if err := tw.Flush(); err != nil {
			return "", err
		}
	}

	if len(out.Diagnostics) > 0 {
		sb.WriteString("\nDiagnostics:\n")
		for _, d := range out.Diagnostics {
			fmt.Fprintf(&sb, "  %s route %s segment %d in %s: %s\n", d.Code, d.RouteID, d.Segment, d.DomainID, d.Message)
		}
	}

	if len(s.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range s.Warnings {
			fmt.Fprintf(&sb, "  %s %s: %s\n", w.Code, w.DomainID, w.Message)
		}
	}

	fmt.Fprintf(&sb, "\nNote: %s\n", s.Limitation)
	return sb.String(), nil
}

// GetFileExtension returns the file extension for text reports
func (e *TextExporter) GetFileExtension() string {
	return ".txt"
}

// GetFormatName returns the format name
func (e *TextExporter) GetFormatName() string {
	return "Text"
}
