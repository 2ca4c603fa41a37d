package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/goccy/go-json"
)

// WriteText prints a human-readable rendering of s.
func (s Summary) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", s.RunID)
	fmt.Fprintf(tw, "mode\t%s\n", s.Mode)
	fmt.Fprintf(tw, "events\t%d\t(%d missing input)\n", s.Stats.Events, s.Stats.MissingInput)
	fmt.Fprintf(tw, "modules\t%d\n", s.Stats.Modules)
	fmt.Fprintf(tw, "clusters\t%d\tmerged %d\tunmerged %d\tno truth %d\n",
		s.Stats.Clusters, s.Stats.Merged, s.Stats.Unmerged, s.Stats.NoTruth)
	fmt.Fprintf(tw, "merged fraction\t%.4f\n", s.MergedFraction)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "class\tcount\twidth mean\twidth std\twidth median\tcharge mean\tcharge std")
	for _, row := range []struct {
		name string
		p    Population
	}{{"merged", s.Merged}, {"unmerged", s.Unmerged}} {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.1f\t%.1f\t%.1f\n",
			row.name, row.p.Count, row.p.MeanWidth, row.p.StdWidth, row.p.MedianWidth, row.p.MeanCharge, row.p.StdCharge)
	}

	if len(s.BySubdetector) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "subdetector\tclusters\tmerged")
		for _, name := range s.SubdetectorNames() {
			c := s.BySubdetector[name]
			fmt.Fprintf(tw, "%s\t%d\t%d\n", name, c.Clusters, c.Merged)
		}
	}
	return tw.Flush()
}

// WriteJSON writes s as indented JSON to path, creating parent directories.
func (s Summary) WriteJSON(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
