package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/irfndi/trendpulse/internal/api/handlers"
	"github.com/irfndi/trendpulse/internal/pattern"
	"github.com/irfndi/trendpulse/internal/services"
	"github.com/spf13/cobra"
)

func newClassifyCmd(opts *options) *cobra.Command {
	var (
		topic     string
		values    string
		file      string
		minPoints int
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a series given inline or in a JSON file",
		Example: `  trendctl classify --topic golang --values 1,2,3,4,5,6,7,8,9,10
  trendctl classify --topic golang --file series.json --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := services.NewSeriesParser(services.DefaultMaxSeriesSize)

			var (
				series services.Series
				err    error
			)
			switch {
			case file != "":
				raw, readErr := os.ReadFile(file)
				if readErr != nil {
					return fmt.Errorf("failed to read %s: %w", file, readErr)
				}
				series, err = parser.Parse(raw)
			case values != "":
				series, err = parser.FromValues(splitValues(values), nil)
			default:
				return fmt.Errorf("one of --values or --file is required")
			}
			if err != nil {
				return err
			}

			assigner := pattern.NewVariantAssigner()
			assigner.MinDataPoints = minPoints
			svc := services.NewTrendService(assigner, nil, nil, opts.logger(cmd))

			result, err := svc.Analyze(cmd.Context(), topic, series)
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), handlers.NewClassifyResponse(result))
			}
			printClassification(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "cli", "Topic the series belongs to")
	cmd.Flags().StringVarP(&values, "values", "v", "", "Comma-separated observations")
	cmd.Flags().StringVarP(&file, "file", "f", "", `JSON document {"values": [...], "timestamps": [...]}`)
	cmd.Flags().IntVar(&minPoints, "min-points", pattern.DefaultMinDataPoints, "Series length below which no variant is assigned")
	return cmd
}

// splitValues keeps each field as a string so the parser applies the same
// coercion it uses for JSON input.
func splitValues(raw string) []any {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = f
	}
	return out
}

func printClassification(cmd *cobra.Command, result *services.AnalysisResult) {
	w := cmd.OutOrStdout()
	p := result.Pattern

	printf(w, "Topic:       %s\n", result.Topic)
	printf(w, "Variant:     %s (%s)\n", displayName(string(result.Variant)), result.Variant)
	printf(w, "Type:        %s\n", p.PatternType)
	printf(w, "Action:      %s\n", result.RecommendedAction)
	printf(w, "Strategy:    %s\n", result.Metadata.Strategy)
	printf(w, "Cadence:     %s\n", result.Metadata.UpdateCadence)
	printf(w, "Confidence:  %s\n", feature(p.ConfidenceScore))
	printf(w, "Momentum:    %s\n", feature(p.Momentum))
	printf(w, "Volatility:  %s\n", feature(p.Volatility))
	printf(w, "Strength:    %s\n", feature(p.TrendStrength))
	if p.HasSupportResistance {
		printf(w, "Bands:       %s - %s\n", feature(p.SupportLevel), feature(p.ResistanceLevel))
	}
	if p.DominantCycle != "" {
		printf(w, "Cycle:       %s\n", p.DominantCycle)
	}
	printf(w, "Data points: %d\n", p.DataPoints)
}

// feature renders a rounded feature value, or n/a when it was not computable.
func feature(f float64) string {
	if d := services.RoundFinite(f); d != nil {
		return d.String()
	}
	return "n/a"
}
