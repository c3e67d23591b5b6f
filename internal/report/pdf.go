package report

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin   = 10.0
	headerHeight = 8.0
	rowHeight    = 7.0
)

// Column 表格列
type Column struct {
	Header string
	Width  float64 // 相对宽度，按页面可用宽度等比缩放
	Align  string  // L/C/R，为空时左对齐
}

// Row 表格行
type Row struct {
	Cells  []string
	Status string // 用于着色的状态值
}

// SummaryItem 状态汇总
type SummaryItem struct {
	Label string
	Count int64
}

// Document PDF 报表
type Document struct {
	Title        string
	Subtitle     string
	GeneratedAt  time.Time
	Summary      []SummaryItem
	Columns      []Column
	Rows         []Row
	StatusColumn int // 状态列下标，-1 表示不着色
}

type rgb struct{ r, g, b int }

var statusColors = map[string]rgb{
	"active":    {21, 128, 61},
	"delivered": {21, 128, 61},
	"completed": {21, 128, 61},
	"confirmed": {180, 83, 9},
	"pending":   {180, 83, 9},
	"inactive":  {185, 28, 28},
	"cancelled": {185, 28, 28},
}

var (
	headerFill  = rgb{30, 64, 175}
	stripeFill  = rgb{243, 244, 246}
	defaultText = rgb{17, 24, 39}
)

var fileNameUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Render 输出横向 A4 报表
func Render(w io.Writer, doc Document) error {
	if len(doc.Columns) == 0 {
		return fmt.Errorf("report: no columns")
	}
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	pdf.SetTitle(doc.Title, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(107, 114, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	widths := scaleWidths(pdf, doc.Columns)
	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(headerFill.r, headerFill.g, headerFill.b)
		pdf.SetTextColor(255, 255, 255)
		for i, col := range doc.Columns {
			pdf.CellFormat(widths[i], headerHeight, tr(col.Header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(defaultText.r, defaultText.g, defaultText.b)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, tr(doc.Subtitle), "", 1, "L", false, 0, "")
	}
	generatedAt := doc.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated at "+generatedAt.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	if len(doc.Summary) > 0 {
		parts := make([]string, 0, len(doc.Summary))
		for _, item := range doc.Summary {
			parts = append(parts, fmt.Sprintf("%s: %d", item.Label, item.Count))
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(0, 6, tr(strings.Join(parts, "   ")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	drawHeader()
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for idx, row := range doc.Rows {
		if pdf.GetY()+rowHeight > pageHeight-bottom-5 {
			pdf.AddPage()
			drawHeader()
		}
		fill := idx%2 == 1
		pdf.SetFillColor(stripeFill.r, stripeFill.g, stripeFill.b)
		pdf.SetFont("Helvetica", "", 8)
		for i := range doc.Columns {
			cell := ""
			if i < len(row.Cells) {
				cell = row.Cells[i]
			}
			color := defaultText
			if i == doc.StatusColumn {
				if c, ok := statusColors[strings.ToLower(strings.TrimSpace(row.Status))]; ok {
					color = c
				}
			}
			pdf.SetTextColor(color.r, color.g, color.b)
			align := doc.Columns[i].Align
			if align == "" {
				align = "L"
			}
			pdf.CellFormat(widths[i], rowHeight, tr(fitText(pdf, cell, widths[i])), "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(doc.Rows) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(defaultText.r, defaultText.g, defaultText.b)
		pdf.CellFormat(0, rowHeight, "No records", "1", 1, "C", false, 0, "")
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.Output(w)
}

// FileName 生成 <kind>_<filter>_<date>.pdf
func FileName(kind, filter string, day time.Time) string {
	kind = sanitizeFilePart(kind, "report")
	filter = sanitizeFilePart(filter, "all")
	return fmt.Sprintf("%s_%s_%s.pdf", kind, filter, day.Format("2006-01-02"))
}

func sanitizeFilePart(raw, fallback string) string {
	part := strings.Trim(fileNameUnsafe.ReplaceAllString(strings.ToLower(raw), "-"), "-")
	if part == "" {
		return fallback
	}
	return part
}

func scaleWidths(pdf *fpdf.Fpdf, columns []Column) []float64 {
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	available := pageWidth - left - right
	total := 0.0
	for _, col := range columns {
		if col.Width > 0 {
			total += col.Width
		} else {
			total++
		}
	}
	widths := make([]float64, len(columns))
	for i, col := range columns {
		weight := col.Width
		if weight <= 0 {
			weight = 1
		}
		widths[i] = available * weight / total
	}
	return widths
}

func fitText(pdf *fpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if pdf.GetStringWidth(candidate) <= limit {
			return candidate
		}
	}
	return ""
}
