package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/jihwankim/styleinfer/pkg/reporting"
)

var (
	cfgFile string
	verbose bool
	version = "dev" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "styleinfer",
	Short: "Infer a code formatter's configuration from example output",
	Long: `styleinfer searches a code formatter's option space for the
configuration whose output most closely matches a set of reference files,
by iteratively diffing candidate reformats against those references.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is none; built-in defaults apply)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(inferCmd)
}

func main() {
	reporting.InitGlobalLogger(reporting.LoggerConfig{Level: reporting.LogLevelInfo, Format: reporting.LogFormatText})

	// Under a container CPU quota, runtime.NumCPU reports the host's core
	// count; the dispatcher's worker cap (min(N_jobs, CPU_count), §4.3)
	// needs GOMAXPROCS corrected to the quota instead.
	if _, err := maxprocs.Set(); err != nil {
		// Outside a cgroup-limited environment this is a no-op failure;
		// the process still runs correctly at the host's CPU count.
		reporting.Startup("gomaxprocs correction skipped", "error", err)
	}

	if err := rootCmd.Execute(); err != nil {
		reporting.StartupFatal("command failed", "error", err)
	}
}
