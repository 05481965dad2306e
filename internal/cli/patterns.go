package cli

import (
	"github.com/irfndi/trendpulse/internal/api/handlers"
	"github.com/irfndi/trendpulse/internal/pattern"
	"github.com/spf13/cobra"
)

func newPatternsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List every trend variant with its guidance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := pattern.AllPatterns()

			if opts.jsonOutput {
				infos := make([]handlers.PatternInfo, 0, len(all))
				for _, p := range all {
					infos = append(infos, handlers.PatternInfo{Name: p, Metadata: p.Metadata()})
				}
				return writeJSON(cmd.OutOrStdout(), infos)
			}

			w := cmd.OutOrStdout()
			for _, p := range all {
				m := p.Metadata()
				printf(w, "%-18s %.2f  %-10s %s\n", displayName(string(p)), m.ConfidenceLevel, m.UpdateCadence, m.Strategy)
			}
			return nil
		},
	}
}
