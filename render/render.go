// Package render substitutes variable placeholders in a calibration
// template to produce one candidate's concrete input file.
package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/calibrator/calibrate"
)

// Render writes outputPath by replacing every @variableK@ with the K-th
// variable's name and every @valueK@ with that candidate's K-th parameter
// value, formatted per the variable's format string, for K in
// 1..len(vars). Substitution is literal (no regex metacharacters on the
// replacement side) and every placeholder is independent: a template
// naming none of a variable's placeholders is valid, and an unrecognized
// placeholder is left untouched.
func Render(vars []calibrate.Variable, values []float64, template calibrate.TemplateFile, outputPath string) error {
	content := template.Bytes()

	replacer := make([]string, 0, 4*len(vars))
	for k, v := range vars {
		replacer = append(replacer,
			"@variable"+strconv.Itoa(k+1)+"@", v.Name,
			"@value"+strconv.Itoa(k+1)+"@", v.Print(values[k]),
		)
	}

	out := strings.NewReplacer(replacer...).Replace(string(content))

	f, err := os.Create(outputPath)
	if err != nil {
		return &calibrate.RenderError{Output: outputPath, Err: err}
	}
	defer f.Close()

	if _, err := f.WriteString(out); err != nil {
		return &calibrate.RenderError{Output: outputPath, Err: err}
	}
	return nil
}

// InputName builds the transient input filename for one render, embedding
// the slot, candidate, and experiment indices so concurrent workers on the
// same rank never collide.
func InputName(slot, candidate, experiment int) string {
	return fmt.Sprintf("input-%d-%d-%d", slot, candidate, experiment)
}
