// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// HTMLMode selects how the HTML bundle references static resources.
type HTMLMode string

const (
	// HTMLLocal copies the static resources into the bundle.
	HTMLLocal HTMLMode = "local"
	// HTMLPDBDev expects the resources to be served by the PDB-Dev site.
	HTMLPDBDev HTMLMode = "pdb-dev"
)

// PDFBackend identifies the HTML-to-PDF conversion tool.
type PDFBackend string

const (
	PDFNative      PDFBackend = "native"
	PDFWkhtmltopdf PDFBackend = "wkhtmltopdf"
)

// OutputConfig controls where and how the report artifacts are written.
type OutputConfig struct {
	// Root is the directory under which the per-entry output directory is created.
	Root string `json:"root" yaml:"root"`

	// Prefix names the per-entry output directory and every artifact in it.
	// Empty means the stem of the input file.
	Prefix string `json:"prefix" yaml:"prefix"`

	// Force removes an existing output directory instead of aborting.
	Force bool `json:"force" yaml:"force"`

	// KeepHTML keeps the uncompressed HTML directory after archiving.
	KeepHTML bool `json:"keep_html" yaml:"keep_html"`

	// HTMLMode selects local or pdb-dev resource paths.
	HTMLMode HTMLMode `json:"html_mode" yaml:"html_mode"`

	// HTMLResources is the static resources directory copied in local mode.
	HTMLResources string `json:"html_resources" yaml:"html_resources"`

	// PDFBackend selects the PDF converter.
	PDFBackend PDFBackend `json:"pdf_backend" yaml:"pdf_backend"`

	// Timezone is the IANA zone used for the report timestamp.
	Timezone string `json:"timezone" yaml:"timezone"`
}

// CacheConfig controls the metrics cache.
type CacheConfig struct {
	// Root is the directory holding the cache database.
	Root string `json:"root" yaml:"root"`

	// Disabled makes every stage reload metrics instead of using cached values.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// SupplementaryInfo holds the free-text fields the depositor supplies for the
// supplementary table.
type SupplementaryInfo struct {
	Physics            bool     `json:"physics" yaml:"physics"`
	ScriptsLocation    []string `json:"scripts_location" yaml:"scripts_location"`
	DataLocation       []string `json:"data_location" yaml:"data_location"`
	MethodDetails      []string `json:"method_details" yaml:"method_details"`
	Models             string   `json:"models" yaml:"models"`
	Clustering         string   `json:"clustering" yaml:"clustering"`
	ModelPrecision     string   `json:"model_precision" yaml:"model_precision"`
	SamplingValidation []string `json:"sampling_validation" yaml:"sampling_validation"`
	FitInput           []string `json:"fit_input" yaml:"fit_input"`
	FitCross           []string `json:"fit_cross" yaml:"fit_cross"`
	DataQuality        []string `json:"data_quality" yaml:"data_quality"`
	Resolution         []string `json:"resolution" yaml:"resolution"`
}

// ReportConfig groups everything one validation run needs.
type ReportConfig struct {
	// InputFile is the structural-model archive (mmCIF) being validated.
	InputFile string `json:"input_file" yaml:"input_file"`

	// MetricsFile is the metrics document for InputFile.
	// Empty means <input stem>.metrics.yaml next to the input.
	MetricsFile string `json:"metrics_file" yaml:"metrics_file"`

	// Verbose enables per-step progress output.
	Verbose bool `json:"verbose" yaml:"verbose"`

	Output        OutputConfig      `json:"output" yaml:"output"`
	Cache         CacheConfig       `json:"cache" yaml:"cache"`
	Supplementary SupplementaryInfo `json:"supplementary" yaml:"supplementary"`
}

// DefaultSupplementary returns the statements printed when the depositor
// supplies nothing for a field.
func DefaultSupplementary() SupplementaryInfo {
	return SupplementaryInfo{
		ScriptsLocation:    []string{"No location specified"},
		DataLocation:       []string{"No location specified"},
		MethodDetails:      []string{"Method details not available"},
		Models:             "1",
		Clustering:         "Distance threshold-based clustering used if ensembles are deposited",
		ModelPrecision:     "10 Å (average RMSF of the solution ensemble with respect to the centroid structure)",
		SamplingValidation: []string{"Information related to sampling validation has not been provided"},
		FitInput:           []string{"Fit of model to information used to compute it has not been determined"},
		FitCross:           []string{"Fit of model to information not used to compute it has not been determined"},
		DataQuality:        []string{"Quality of input data has not be assessed"},
		Resolution:         []string{"Rigid bodies: 1 residue per bead.", "Flexible regions: N/A"},
	}
}
