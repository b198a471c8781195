package domain

// PDFFileName is the name a generated PDF is saved under.
const PDFFileName = "Generated_Documentation.pdf"

// Documentation is generated documentation text, as returned by the upload
// endpoint and sent back to the PDF endpoint.
type Documentation struct {
	Text string `json:"documentation"`
}

// Empty reports whether there is nothing to turn into a PDF.
func (d Documentation) Empty() bool {
	return d.Text == ""
}
