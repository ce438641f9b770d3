package export

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/r3d91ll/tanita/pkg/errors"
)

func init() {
	// Validation runs with the built-in defaults instead of a per-user
	// pdfcpu configuration directory.
	api.DisableConfigDir()
}

// PDFInfo summarises a written PDF.
type PDFInfo struct {
	Pages int

	// Width and Height of the first page in points.
	Width  float64
	Height float64
}

// ValidatePDF checks that path is a well-formed PDF and returns its page
// count and first page size.
func ValidatePDF(path string) (*PDFInfo, error) {
	if err := api.ValidateFile(path, nil); err != nil {
		return nil, errors.ExportWrap(err, errors.ErrExportFailed, "written report is not a valid PDF").
			WithContext(errors.ContextPath, path)
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return nil, errors.ExportWrap(err, errors.ErrExportFailed, "cannot count report pages").
			WithContext(errors.ContextPath, path)
	}
	info := &PDFInfo{Pages: n}
	if dims, err := api.PageDimsFile(path); err == nil && len(dims) > 0 {
		info.Width, info.Height = dims[0].Width, dims[0].Height
	}
	return info, nil
}
