// tanita decodes Tanita BC-601/BC-603 FS body composition exports and
// renders them as a PDF report, CSV/TSV tables or an XLSX workbook.
//
// Measurements come from DATA*.CSV files (GRAPHV1/DATA on the scale's SD
// card) and profiles from PROF*.CSV files (GRAPHV1/SYSTEM).
package main

import (
	"os"

	"github.com/r3d91ll/tanita/cmd/tanita/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
