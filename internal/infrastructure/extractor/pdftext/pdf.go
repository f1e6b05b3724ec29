package pdftext

import (
	"os"

	"github.com/ledongthuc/pdf"
)

type pdfDocument struct {
	file   *os.File
	reader *pdf.Reader
}

func openPDF(path string) (document, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &pdfDocument{file: file, reader: reader}, nil
}

func (d *pdfDocument) NumPages() int { return d.reader.NumPage() }

func (d *pdfDocument) PageText(page int) (string, error) {
	p := d.reader.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (d *pdfDocument) Close() error { return d.file.Close() }
