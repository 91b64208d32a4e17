// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ihm-report/internal/cache"
	"github.com/pdiddy/ihm-report/internal/metrics"
	"github.com/pdiddy/ihm-report/internal/report"
	"github.com/pdiddy/ihm-report/pkg/types"
)

// envKeyReplacer maps flag-style keys to environment names,
// e.g. output-root to IHM_REPORT_OUTPUT_ROOT.
var envKeyReplacer = strings.NewReplacer("-", "_")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Generate the validation report for one entry",
	Long: `Validate reads the metrics document of an mmCIF deposition and writes the
validation report under <output-root>/<prefix>/: the compressed HTML bundle,
the full report PDF, the supplementary table PDF and the JSON summary.

An existing output directory is left untouched unless --force is given.
Metrics are served from the cache in --cache-root when the input has not
changed; --nocache reloads them.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		return viper.BindPFlags(cmd.InheritedFlags())
	},
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := reportConfig(cmd)
	if err != nil {
		return err
	}

	// An existing report is a clean exit; check before reading any input.
	layout, exists, err := report.Preflight(cfg)
	if err != nil {
		return err
	}
	if exists && !cfg.Output.Force {
		fmt.Fprintln(os.Stderr, report.ExistsMessage(layout))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docPath := cfg.MetricsFile
	if docPath == "" {
		docPath = metrics.DefaultDocumentPath(cfg.InputFile)
	}
	provider, err := metrics.OpenDocument(cfg.InputFile, docPath)
	if err != nil {
		return err
	}

	var opts []report.Option
	if cfg.Cache.Root != "" {
		store, err := cache.Open(cfg.Cache.Root)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, report.WithCache(store))
	}

	var w io.Writer = io.Discard
	if cfg.Verbose {
		w = os.Stderr
	} else {
		opts = append(opts, report.WithProgress(report.NewProgressBar(report.StageCount(), os.Stderr)))
	}

	g, err := report.New(cfg, provider, w, opts...)
	if err != nil {
		return err
	}
	res, err := g.Run(ctx)
	if err != nil {
		return err
	}
	if res.Skipped {
		if !cfg.Verbose {
			fmt.Fprintln(os.Stderr, report.ExistsMessage(res.Layout))
		}
		return nil
	}

	fmt.Printf("Report for %s written to %s\n", res.Context.String(report.KeyID), res.Layout.Root)
	return nil
}

// reportConfig assembles the run configuration from flags, environment and
// config file, in viper's precedence order.
func reportConfig(cmd *cobra.Command) (types.ReportConfig, error) {
	cfg := types.ReportConfig{
		InputFile:   viper.GetString("file"),
		MetricsFile: viper.GetString("metrics"),
		Verbose:     viper.GetBool("verbose"),
		Output: types.OutputConfig{
			Root:          viper.GetString("output-root"),
			Prefix:        viper.GetString("output-prefix"),
			Force:         viper.GetBool("force"),
			KeepHTML:      viper.GetBool("keep-html"),
			HTMLMode:      types.HTMLMode(viper.GetString("html-mode")),
			HTMLResources: viper.GetString("html-resources"),
			PDFBackend:    types.PDFBackend(viper.GetString("pdf-backend")),
			Timezone:      viper.GetString("timezone"),
		},
		Cache: types.CacheConfig{
			Root:     viper.GetString("cache-root"),
			Disabled: viper.GetBool("nocache"),
		},
		Supplementary: types.SupplementaryInfo{
			Physics:            physicsUsed(viper.GetString("physics")),
			ScriptsLocation:    listSetting(cmd, "scripts-location"),
			DataLocation:       listSetting(cmd, "data-location"),
			MethodDetails:      listSetting(cmd, "method"),
			Models:             viper.GetString("models"),
			Clustering:         viper.GetString("clustering"),
			ModelPrecision:     viper.GetString("model-precision"),
			SamplingValidation: listSetting(cmd, "sampling-validation"),
			FitInput:           listSetting(cmd, "fit-input"),
			FitCross:           listSetting(cmd, "fit-cross"),
			DataQuality:        listSetting(cmd, "data-quality"),
			Resolution:         listSetting(cmd, "resolution"),
		},
	}

	if cfg.InputFile == "" {
		return cfg, fmt.Errorf("no input file: use --file")
	}
	switch cfg.Output.HTMLMode {
	case types.HTMLLocal, types.HTMLPDBDev:
	default:
		return cfg, fmt.Errorf("invalid --html-mode %q: use local or pdb-dev", cfg.Output.HTMLMode)
	}
	switch cfg.Output.PDFBackend {
	case types.PDFNative, types.PDFWkhtmltopdf:
	default:
		return cfg, fmt.Errorf("invalid --pdf-backend %q: use native or wkhtmltopdf", cfg.Output.PDFBackend)
	}
	return cfg, nil
}

// listSetting returns a repeatable flag's values when given on the command
// line, else the list from the environment or config file. Values are kept
// whole so free text may contain commas.
func listSetting(cmd *cobra.Command, key string) []string {
	if f := cmd.Flags().Lookup(key); f != nil && f.Changed {
		v, _ := cmd.Flags().GetStringArray(key)
		return v
	}
	return viper.GetStringSlice(key)
}

func physicsUsed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y", "true":
		return true
	}
	return false
}

func init() {
	f := validateCmd.Flags()
	f.StringP("file", "f", "PDBDEV_00000001.cif", "input mmCIF file")
	f.String("metrics", "", "metrics document (default: <input stem>.metrics.yaml next to the input)")
	f.BoolP("verbose", "v", false, "print per-stage progress instead of the progress bar")
	f.StringP("physics", "p", "No", "physical principles used in modeling: yes or no")
	f.Bool("nocache", false, "reload metrics instead of using cached values")
	f.String("output-root", "Validation", "directory under which the report directory is created")
	f.String("output-prefix", "", "report directory and file prefix (default: input file stem)")
	f.String("html-mode", string(types.HTMLLocal), "static resource paths: local or pdb-dev")
	f.String("html-resources", "", "static resources directory copied into the bundle in local mode")
	f.Bool("keep-html", false, "keep the uncompressed HTML directory")
	f.Bool("force", false, "overwrite an existing output directory")
	f.String("pdf-backend", string(types.PDFNative), "PDF converter: native or wkhtmltopdf")
	f.String("timezone", "America/Los_Angeles", "time zone of the report timestamp")

	def := types.DefaultSupplementary()
	f.StringArray("scripts-location", nil, "location of the modeling scripts (repeatable)")
	f.StringArray("data-location", nil, "location of the analysis files (repeatable)")
	f.StringArray("method", nil, "method details (repeatable)")
	f.String("models", def.Models, "number of models")
	f.String("clustering", def.Clustering, "clustering method")
	f.String("model-precision", def.ModelPrecision, "model precision")
	f.StringArray("sampling-validation", nil, "sampling validation statement (repeatable)")
	f.StringArray("fit-input", nil, "fit to information used for modeling (repeatable)")
	f.StringArray("fit-cross", nil, "fit to information not used for modeling (repeatable)")
	f.StringArray("data-quality", nil, "quality of input data (repeatable)")
	f.StringArray("resolution", nil, "model resolution statement (repeatable)")

	rootCmd.AddCommand(validateCmd)
}
