// Package qr builds item tag payloads, QR images and printable label sheets.
package qr

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/erazemk/ewaste/internal/model"
)

// DefaultSize is the edge length in pixels of QR PNGs.
const DefaultSize = 512

// Trailer prefixes the last line of every payload.
const Trailer = "E-Waste Portal"

// Payload returns the text encoded into an item's tag. now stamps the
// trailer line with the date the tag was printed.
func Payload(it model.Item, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ITEM: %s\n", it.Name)
	fmt.Fprintf(&b, "ID: %s\n", it.ID)
	fmt.Fprintf(&b, "DEPT: %s\n", it.Department)
	fmt.Fprintf(&b, "CATEGORY: %s\n", it.Category)
	fmt.Fprintf(&b, "CONDITION: %s\n", it.Condition)
	fmt.Fprintf(&b, "CLASS: %s\n", it.Classification.Type)
	fmt.Fprintf(&b, "STATUS: %s\n", it.Status)
	fmt.Fprintf(&b, "AGE: %dm\n", it.AgeMonths)
	fmt.Fprintf(&b, "CREATED: %s\n", it.CreatedAt.In(now.Location()).Format(model.DateLayout))
	if it.Notes != "" {
		fmt.Fprintf(&b, "NOTES: %s\n", it.Notes)
	}
	fmt.Fprintf(&b, "\n%s - %s", Trailer, now.Format(model.DateLayout))
	return b.String()
}

// PNG encodes the item's payload at the highest error correction level.
// A non-positive size selects DefaultSize.
func PNG(it model.Item, now time.Time, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(Payload(it, now), qrcode.Highest, size)
	if err != nil {
		return nil, fmt.Errorf("encoding qr for %s: %w", it.ID, err)
	}
	return png, nil
}

// Sheet layout in millimetres on A4 portrait.
const (
	sheetCols    = 3
	sheetRows    = 7
	marginTop    = 10.0
	marginLeft   = 8.0
	gapX         = 4.0
	gapY         = 3.0
	pageWidthMM  = 210.0
	pageHeightMM = 297.0
)

// LabelSheet renders one tag per item onto A4 pages, three across and
// seven down, with the item id and name under each code.
func LabelSheet(items []model.Item, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "", 8)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	labelW := (pageWidthMM - 2*marginLeft - (sheetCols-1)*gapX) / sheetCols
	labelH := (pageHeightMM - 2*marginTop - (sheetRows-1)*gapY) / sheetRows
	perPage := sheetCols * sheetRows

	if len(items) == 0 {
		pdf.AddPage()
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	for i, it := range items {
		if i%perPage == 0 {
			pdf.AddPage()
		}
		col := (i % perPage) % sheetCols
		row := (i % perPage) / sheetCols
		x := marginLeft + float64(col)*(labelW+gapX)
		y := marginTop + float64(row)*(labelH+gapY)

		png, err := qrcode.Encode(Payload(it, now), qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encoding qr for %s: %w", it.ID, err)
		}
		name := fmt.Sprintf("qr_%d", i)
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))

		qrSize := min(labelH-9, labelW*0.9)
		pdf.ImageOptions(name, x+(labelW-qrSize)/2, y+1, qrSize, qrSize, false, opts, 0, "")

		pdf.SetXY(x, y+labelH-8)
		pdf.SetFontStyle("B")
		pdf.CellFormat(labelW, 4, tr(it.ID), "", 2, "C", false, 0, "")
		pdf.SetFontStyle("")
		pdf.CellFormat(labelW, 4, tr(truncate(it.Name, 40)), "", 0, "C", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("building label sheet: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing label sheet: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
