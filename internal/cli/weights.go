package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/irfndi/trendpulse/internal/models"
	"github.com/irfndi/trendpulse/internal/services"
	"github.com/irfndi/trendpulse/internal/weights"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type performanceReport struct {
	metric      string
	performance float64
}

func newWeightsCmd(opts *options) *cobra.Command {
	var (
		contentType string
		reports     []string
		reset       bool
		redisAddr   string
	)

	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Show, adjust or reset the weight profile of a content type",
		Long: `Without --redis the profile lives only for this invocation, which is
useful to preview how reports move the weights. With --redis the checkpointed
profiles are loaded first and written back after any change.`,
		Example: `  trendctl weights --type podcast --report trend=0.9
  trendctl weights --type blog --reset --redis localhost:6379`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseReports(reports)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := opts.logger(cmd)
			store := weights.NewStore(logger)
			scoring := services.NewScoringService(store, nil, logger)

			var checkpointer *weights.Checkpointer
			if redisAddr != "" {
				client := redis.NewClient(&redis.Options{Addr: redisAddr})
				defer client.Close()

				checkpointer = weights.NewCheckpointer(store, client, 0, logger)
				if _, err := checkpointer.Load(ctx); err != nil {
					return err
				}
			}

			if reset {
				if _, _, err := scoring.Reset(ctx, contentType); err != nil {
					return err
				}
			}
			for _, r := range parsed {
				if _, err := scoring.ReportPerformance(ctx, contentType, r.metric, r.performance); err != nil {
					return err
				}
			}

			ct, current, err := scoring.Weights(contentType)
			if err != nil {
				return err
			}

			if checkpointer != nil && (reset || len(parsed) > 0) {
				if _, err := checkpointer.Save(ctx); err != nil {
					return err
				}
			}

			rounded := make(map[string]decimal.Decimal, len(current))
			for metric, w := range current {
				rounded[metric] = services.Round4(w)
			}

			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), models.WeightsResponse{ContentType: ct, Weights: rounded})
			}

			metrics := make([]string, 0, len(rounded))
			for metric := range rounded {
				metrics = append(metrics, metric)
			}
			sort.Strings(metrics)

			w := cmd.OutOrStdout()
			printf(w, "Content type: %s\n", ct)
			for _, metric := range metrics {
				printf(w, "  %-12s %s\n", displayName(metric), rounded[metric])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "type", weights.FallbackContentType, "Content type")
	cmd.Flags().StringArrayVar(&reports, "report", nil, "Performance report as metric=value, repeatable")
	cmd.Flags().BoolVar(&reset, "reset", false, "Restore the defaults before applying reports")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address holding weight checkpoints")
	return cmd
}

func parseReports(raw []string) ([]performanceReport, error) {
	out := make([]performanceReport, 0, len(raw))
	for _, r := range raw {
		metric, value, ok := strings.Cut(r, "=")
		if !ok {
			return nil, fmt.Errorf("report %q must be metric=value", r)
		}
		performance, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("report %q has an invalid value: %w", r, err)
		}
		out = append(out, performanceReport{metric: strings.TrimSpace(metric), performance: performance})
	}
	return out, nil
}
