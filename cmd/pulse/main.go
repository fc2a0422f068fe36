package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ============================================================================
// PULSE CLI — Business health from any sales table
// ============================================================================

const version = "0.3.0"

var rootFlags struct {
	configPath string
}

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Business health analysis for sales tables",
	Long: `Pulse — KPIs, revenue alerts, churn risk and product dependency
for any CSV, Excel sheet or database table.

Examples:
  pulse analyze --file sales.csv --format pretty
  pulse analyze --file sales.xlsx --sheet Orders --format markdown --out report.md
  pulse analyze --source postgres --query "SELECT * FROM orders" --format text
  pulse discover --file sales.csv --format csv
  pulse serve --config pulse.yaml

Environment:
  GEMINI_API_KEY        Enables --summarize
  PULSE_SLACK_WEBHOOK   Enables --notify
  PULSE_POSTGRES_DSN    Default DSN for --source postgres
  PULSE_MYSQL_DSN       Default DSN for --source mysql
  PULSE_MONGO_URI       Default URI for --source mongo`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and exit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pulse %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlags.configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatalf("%v", err)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
