package service

import (
	"bytes"
	"image"
	"image/png"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/pkg/errors"
)

// The code rendered at 256px scans fine on screen; the print poster wants a
// larger bitmap so the modules keep crisp edges on paper.
const (
	qrBaseSize  = 256
	qrPrintSize = 1024
)

// EncodeQR renders the check-in payload as a PNG sized for print. Scaling
// uses nearest-neighbour so module edges stay sharp.
func EncodeQR(payload string) ([]byte, error) {
	if payload == "" {
		return nil, errors.New("qr payload is empty")
	}

	code, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, errors.Wrap(err, "encoding qr payload")
	}

	src := code.Image(qrBaseSize)
	dst := image.NewRGBA(image.Rect(0, 0, qrPrintSize, qrPrintSize))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, errors.Wrap(err, "encoding qr png")
	}

	return buf.Bytes(), nil
}

// QRPosterPDF builds a printable A4 poster with the centre's check-in code.
func QRPosterPDF(title, payload string) ([]byte, error) {
	pngBytes, err := EncodeQR(payload)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, title, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(0, 8, "Scan this code to mark your attendance", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(pngBytes))

	// 140mm square, centred on a 210mm page.
	pdf.ImageOptions("qr", 35, 50, 140, 140, false, opts, 0, "")

	pdf.SetY(200)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, "Printed "+time.Now().Format("January 2, 2006"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "writing qr poster pdf")
	}

	return buf.Bytes(), nil
}
