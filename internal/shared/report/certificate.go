// Package report renders the binary artifacts served by the API:
// certificate PDFs, QR code images and xlsx exports.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

// CertificateData 证书PDF内容
type CertificateData struct {
	Number          string
	Type            string
	IssuerName      string
	TestType        string
	SampleName      string
	SubjectRef      string // 批次号或成品批次号
	IssuedDate      time.Time
	ExpiryDate      *time.Time
	Results         map[string]interface{}
	Remarks         string
	VerificationURL string
}

// RenderCertificate 生成证书PDF
func RenderCertificate(d CertificateData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Certificate "+d.Number, true)
	pdf.SetCreator("AyuTrace", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 14, tr("Certificate of Analysis"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, tr(d.Number), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 8, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, tr(value), "", 1, "L", false, 0, "")
	}
	row("Certificate type", d.Type)
	row("Issued by", d.IssuerName)
	row("Test type", d.TestType)
	row("Sample", d.SampleName)
	if d.SubjectRef != "" {
		row("Batch", d.SubjectRef)
	}
	row("Issued", d.IssuedDate.Format("2006-01-02"))
	if d.ExpiryDate != nil {
		row("Valid until", d.ExpiryDate.Format("2006-01-02"))
	}

	if len(d.Results) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 10, tr("Results"), "B", 1, "L", false, 0, "")
		keys := make([]string, 0, len(d.Results))
		for k := range d.Results {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			row(k, fmt.Sprint(d.Results[k]))
		}
	}

	if d.Remarks != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, tr(d.Remarks), "", "L", false)
	}

	if d.VerificationURL != "" {
		png, err := QRCodePNG(d.VerificationURL, 256)
		if err != nil {
			return nil, err
		}
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(png))
		pdf.Ln(6)
		pdf.ImageOptions("verify-qr", 10, pdf.GetY(), 35, 35, false, opts, 0, "")
		pdf.SetXY(50, pdf.GetY()+12)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 6, tr(d.VerificationURL), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// QRCodePNG 生成二维码PNG
func QRCodePNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
