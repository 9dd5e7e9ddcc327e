// Command schoolctl runs the offline data pipeline of the school map: it
// reads UDIR exam exports, geocodes the schools and builds the dataset the
// map service loads.
//
// Usage:
//
//	schoolctl geocode                     # geocode every export in raw-data/
//	schoolctl build                       # rebuild the dataset from processed-data/
//	schoolctl import 2026-27 barne.csv ungdom.csv
//	schoolctl analyze export.csv
//	schoolctl geocode-one "Bekkestua skole, Bærum, Norway"
//	schoolctl validate static/js/school-data.json
package main

import (
	"log/slog"
	"os"

	"github.com/couchcryptid/school-map-service/internal/config"
	"github.com/couchcryptid/school-map-service/internal/observability"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

// env is the process-wide state shared by the subcommands.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics

	rawDir       string
	processedDir string
	datasetPath  string
	mappingPath  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:          "schoolctl",
		Short:        "Build the school map dataset from UDIR exam exports",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			e.metrics = observability.NewMetrics()
			if e.datasetPath == "" {
				e.datasetPath = cfg.DatasetURL
			}
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&e.rawDir, "raw-dir", "raw-data", "directory holding UDIR exports")
	f.StringVar(&e.processedDir, "processed-dir", "processed-data", "directory for geocoded CSVs")
	f.StringVar(&e.datasetPath, "dataset", "", "dataset JSON output path (default DATASET_URL)")
	f.StringVar(&e.mappingPath, "mapping", "", "YAML column mapping for UDIR exports")

	root.AddCommand(
		newGeocodeCmd(e),
		newBuildCmd(e),
		newImportCmd(e),
		newAnalyzeCmd(e),
		newGeocodeOneCmd(e),
		newValidateCmd(e),
	)
	return root
}
