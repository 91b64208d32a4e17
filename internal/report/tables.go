// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/ihm-report/pkg/types"
)

var physicsUsed = []string{"Sequence connectivity", "Excluded volume"}

const physicsMissing = "Information about physical principles was not provided"

// Physics lists the physical principles statement for the supplementary table.
func Physics(used bool) []string {
	if used {
		return append([]string(nil), physicsUsed...)
	}
	return []string{physicsMissing}
}

// SupplementaryTable builds the supplementary table. Fields left empty fall
// back to the default statements.
func SupplementaryTable(info types.SupplementaryInfo) types.Table {
	def := types.DefaultSupplementary()
	t := types.Table{Header: []string{"Field", "Value"}}
	t.Append("Location of modeling scripts", strings.Join(orList(info.ScriptsLocation, def.ScriptsLocation), "; "))
	t.Append("Location of analysis files", strings.Join(orList(info.DataLocation, def.DataLocation), "; "))
	t.Append("Method details", strings.Join(orList(info.MethodDetails, def.MethodDetails), " "))
	t.Append("Physical principles", strings.Join(Physics(info.Physics), ", "))
	t.Append("Number of models", orString(info.Models, def.Models))
	t.Append("Clustering", orString(info.Clustering, def.Clustering))
	t.Append("Model precision", orString(info.ModelPrecision, def.ModelPrecision))
	t.Append("Sampling validation", strings.Join(orList(info.SamplingValidation, def.SamplingValidation), " "))
	t.Append("Fit to input information", strings.Join(orList(info.FitInput, def.FitInput), " "))
	t.Append("Fit to information not used for modeling", strings.Join(orList(info.FitCross, def.FitCross), " "))
	t.Append("Quality of input data", strings.Join(orList(info.DataQuality, def.DataQuality), " "))
	t.Append("Resolution", strings.Join(orList(info.Resolution, def.Resolution), " "))
	return t
}

func geometryTable(g *types.GeometryMetrics) types.Table {
	t := types.Table{Header: []string{"Model", "Clashscore", "Ramachandran outliers", "Sidechain outliers"}}
	if g.Empty() {
		return t
	}
	for i, name := range g.Names {
		t.Append(name, num(g.Clashscore[i]), num(g.RamachandranOutliers[i]), num(g.SidechainOutliers[i]))
	}
	return t
}

func excludedVolumeTable(e *types.ExcludedVolumeMetrics) types.Table {
	t := types.Table{Header: []string{"Model", "Excluded volume violations", "Satisfaction (%)"}}
	if e.Empty() {
		return t
	}
	for i, m := range e.Models {
		t.Append(m, violation(e.Violations[i]), num(e.Satisfaction[i]))
	}
	return t
}

func sasDataTable(data []types.SASDataset) types.Table {
	t := types.Table{Header: []string{"Dataset", "Rg from P(r) (nm)", "Rg from Guinier (nm)"}}
	for _, d := range data {
		t.Append(d.ID, num(d.RgPr), num(d.RgGuinier))
	}
	return t
}

func sasFitTable(fits []types.SASFitDataset) types.Table {
	t := types.Table{Header: []string{"Dataset", "Fit", "χ²"}}
	for _, d := range fits {
		for k, chi := range d.ChiSquared {
			t.Append(d.ID, strconv.Itoa(k+1), num(chi))
		}
	}
	return t
}

func crossLinkTable(c *types.CrossLinkFit) types.Table {
	t := types.Table{Header: []string{"Model", "Satisfied cross-links (%)"}}
	if c.Empty() {
		return t
	}
	for i, m := range c.Models {
		t.Append(m, num(c.Satisfaction[i]))
	}
	return t
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func violation(v any) string {
	switch x := v.(type) {
	case nil:
		return "N/A"
	case float64:
		return num(x)
	default:
		return fmt.Sprint(x)
	}
}

func orList(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
