// Package cli implements trendctl, the operator command line for
// classifying series offline and inspecting or adjusting weight profiles.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/irfndi/trendpulse/internal/logging"
	"github.com/irfndi/trendpulse/internal/telemetry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type options struct {
	jsonOutput bool
	logLevel   string
}

// NewRootCmd builds the command tree. Output goes to the command's out
// writer so tests can capture it.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "trendctl",
		Short:         "Classify trend series and manage adaptive weights",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       telemetry.ServiceVersion,
	}
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level for diagnostics on stderr")

	root.AddCommand(
		newClassifyCmd(opts),
		newWeightsCmd(opts),
		newPatternsCmd(opts),
	)
	return root
}

func (o *options) logger(cmd *cobra.Command) *logrus.Logger {
	logger := logging.NewLogrusLogger(o.logLevel)
	logger.SetOutput(cmd.ErrOrStderr())
	return logger
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var titleCaser = cases.Title(language.English)

// displayName turns STEADY_RISE into "Steady Rise".
func displayName(name string) string {
	return titleCaser.String(strings.ReplaceAll(strings.ToLower(name), "_", " "))
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
