package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestRenderCertificateProducesPDF(t *testing.T) {
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out, err := RenderCertificate(CertificateData{
		Number:          "CERT-2025-0001",
		Type:            "QUALITY",
		IssuerName:      "Herbal Labs",
		TestType:        "HEAVY_METALS",
		SampleName:      "Ashwagandha root",
		SubjectRef:      "RMB-2025-0001",
		IssuedDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:      &expiry,
		Results:         map[string]interface{}{"lead_ppm": 0.2, "passed": true},
		Remarks:         "Within limits.",
		VerificationURL: "https://trace.example/certificates/verify/CERT-2025-0001",
	})
	if err != nil {
		t.Fatalf("RenderCertificate: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("expected PDF header, got %q", out[:8])
	}
}

func TestQRCodePNG(t *testing.T) {
	png, err := QRCodePNG("3f2a9c", 0)
	if err != nil {
		t.Fatalf("QRCodePNG: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatal("expected PNG signature")
	}
}

func TestBuildWorkbook(t *testing.T) {
	f, err := BuildWorkbook(Table{
		Sheet:   "Batches",
		Headers: []string{"Batch", "Herb", "Quantity"},
		Widths:  []float64{16, 20, 10},
		Rows: [][]interface{}{
			{"RMB-2025-0001", "Ashwagandha", 100.0},
			{"RMB-2025-0002", "Tulsi", 42.5},
		},
		Summary: "Total: 2",
	})
	if err != nil {
		t.Fatalf("BuildWorkbook: %v", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	reopened, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	for cell, want := range map[string]string{"A1": "Batch", "B2": "Ashwagandha", "C3": "42.5", "A4": "Total: 2"} {
		got, err := reopened.GetCellValue("Batches", cell)
		if err != nil {
			t.Fatalf("GetCellValue %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s: expected %q, got %q", cell, want, got)
		}
	}
}
