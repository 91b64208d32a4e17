// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ModelComposition describes one model of the deposited ensemble.
type ModelComposition struct {
	// Name is the model label used in the deposition (e.g. "Model 1").
	Name string `json:"name" yaml:"name" toml:"name"`

	// Chains lists the chain identifiers present in the model.
	Chains []string `json:"chains" yaml:"chains" toml:"chains"`

	// Residues is the number of residues (or coarse-grained beads) in the model.
	Residues int `json:"residues" yaml:"residues" toml:"residues"`
}

// EntryComposition holds the descriptive metadata of an entry, produced by
// the archive readers.
type EntryComposition struct {
	// ID is the entry identifier (e.g. "PDBDEV_00000001").
	ID string `json:"id" yaml:"id" toml:"id"`

	// Title is the deposition title.
	Title string `json:"title" yaml:"title" toml:"title"`

	// Authors lists the deposition authors in source order.
	Authors []string `json:"authors" yaml:"authors" toml:"authors"`

	// Software lists the modeling software used.
	Software []string `json:"software" yaml:"software" toml:"software"`

	// Datasets lists the input dataset types (e.g. "SAS data", "Crosslinking-MS data").
	Datasets []string `json:"datasets" yaml:"datasets" toml:"datasets"`

	// Models describes each model in the deposition.
	Models []ModelComposition `json:"models" yaml:"models" toml:"models"`
}

// GeometryMetrics holds per-model stereochemistry scores. All slices are
// indexed by model and have the same length as Names.
type GeometryMetrics struct {
	Names                []string  `json:"names" yaml:"names" toml:"names"`
	Clashscore           []float64 `json:"clashscore" yaml:"clashscore" toml:"clashscore"`
	RamachandranOutliers []float64 `json:"ramachandran_outliers" yaml:"ramachandran_outliers" toml:"ramachandran_outliers"`
	SidechainOutliers    []float64 `json:"sidechain_outliers" yaml:"sidechain_outliers" toml:"sidechain_outliers"`
}

// Empty reports whether there is no geometry data to show.
func (g *GeometryMetrics) Empty() bool {
	return g == nil || len(g.Names) == 0
}

// ExcludedVolumeMetrics holds per-model excluded-volume statistics.
//
// Violations keeps the values exactly as the analysis modules wrote them.
// They are usually numbers but may be placeholders such as "N/A"; charting
// validates them.
type ExcludedVolumeMetrics struct {
	Models       []string  `json:"models" yaml:"models" toml:"models"`
	Violations   []any     `json:"violations" yaml:"violations" toml:"violations"`
	Satisfaction []float64 `json:"satisfaction" yaml:"satisfaction" toml:"satisfaction"`
}

// Empty reports whether there is no excluded-volume data to show.
func (e *ExcludedVolumeMetrics) Empty() bool {
	return e == nil || len(e.Models) == 0
}

// SASDataset holds the radius-of-gyration estimates of one SAS dataset, in nm.
type SASDataset struct {
	ID        string  `json:"id" yaml:"id" toml:"id"`
	RgPr      float64 `json:"rg_pr" yaml:"rg_pr" toml:"rg_pr"`
	RgGuinier float64 `json:"rg_guinier" yaml:"rg_guinier" toml:"rg_guinier"`
}

// SASFitDataset holds the χ² values of each model fit against one SAS dataset.
type SASFitDataset struct {
	ID         string    `json:"id" yaml:"id" toml:"id"`
	ChiSquared []float64 `json:"chi_squared" yaml:"chi_squared" toml:"chi_squared"`
}

// CrossLinkFit holds the per-model percentage of satisfied cross-links.
type CrossLinkFit struct {
	Models       []string  `json:"models" yaml:"models" toml:"models"`
	Satisfaction []float64 `json:"satisfaction" yaml:"satisfaction" toml:"satisfaction"`
}

// Empty reports whether there is no cross-link data to show.
func (c *CrossLinkFit) Empty() bool {
	return c == nil || len(c.Models) == 0
}

// MetricsDocument is the on-disk record written by the analysis modules for
// one entry. Sections the modules did not compute are omitted.
type MetricsDocument struct {
	Composition    EntryComposition       `json:"composition" yaml:"composition" toml:"composition"`
	Geometry       *GeometryMetrics       `json:"geometry,omitempty" yaml:"geometry,omitempty" toml:"geometry,omitempty"`
	ExcludedVolume *ExcludedVolumeMetrics `json:"excluded_volume,omitempty" yaml:"excluded_volume,omitempty" toml:"excluded_volume,omitempty"`
	SASData        []SASDataset           `json:"sas_data,omitempty" yaml:"sas_data,omitempty" toml:"sas_data,omitempty"`
	SASFit         []SASFitDataset        `json:"sas_fit,omitempty" yaml:"sas_fit,omitempty" toml:"sas_fit,omitempty"`
	CrossLink      *CrossLinkFit          `json:"crosslink,omitempty" yaml:"crosslink,omitempty" toml:"crosslink,omitempty"`
}
