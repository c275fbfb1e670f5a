package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/phpdave11/gofpdf"
	"github.com/spendly/spendly-backend/internal/domain"
)

// StatementPDF is a rendered statement ready to be served
type StatementPDF struct {
	Filename string
	Data     []byte
}

var statementColumns = []struct {
	title string
	width float64
	align string
}{
	{"DATE", 24, "C"},
	{"TYPE", 22, "C"},
	{"WALLET", 34, "L"},
	{"CATEGORY", 38, "L"},
	{"NOTE", 44, "L"},
	{"AMOUNT", 20, "R"},
}

// ExportPDF renders the summary of a period and its transactions as a PDF statement
func (s *ReportService) ExportPDF(ctx context.Context, userID uuid.UUID, input SummaryInput) (*StatementPDF, error) {
	summary, err := s.Summary(ctx, userID, input)
	if err != nil {
		return nil, err
	}

	lines, err := s.reportRepo.StatementLines(ctx, userID, domain.ReportFilter{
		StartDate: summary.StartDate,
		EndDate:   summary.EndDate,
		Currency:  summary.Currency,
		WalletID:  input.WalletID,
	}, MaxStatementLines+1)
	if err != nil {
		return nil, err
	}

	data, err := renderStatement(summary, lines)
	if err != nil {
		return nil, err
	}

	return &StatementPDF{
		Filename: fmt.Sprintf("spendly-%s-%s-to-%s.pdf",
			summary.Period, summary.StartDate.Format("2006-01-02"), summary.EndDate.Format("2006-01-02")),
		Data: data,
	}, nil
}

func renderStatement(summary *ReportSummary, lines []*domain.StatementLine) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(false, 14)
	// Core fonts are cp1252; translate so accented names render
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Spendly Statement")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s (%s)",
		summary.StartDate.Format("2006-01-02"), summary.EndDate.Format("2006-01-02"), summary.Period))
	pdf.Ln(5)
	pdf.Cell(0, 6, "Currency: "+summary.Currency)
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 11)
	sumW := []float64{60.6, 60.6, 60.6}
	pdf.CellFormat(sumW[0], 10, "Income", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[1], 10, "Expense", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[2], 10, "Net", "1", 1, "C", true, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(sumW[0], 10, summary.Totals.Income.StringFixed(2), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[1], 10, summary.Totals.Expense.StringFixed(2), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[2], 10, summary.Totals.Net.StringFixed(2), "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	if len(summary.Expense) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Spending by category")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, row := range summary.Expense {
			pdf.CellFormat(120, 7, tr(trimTo(row.CategoryName, 60)), "B", 0, "L", false, 0, "")
			pdf.CellFormat(32, 7, row.Amount.StringFixed(2), "B", 0, "R", false, 0, "")
			pdf.CellFormat(30, 7, row.Share.StringFixed(2)+"%", "B", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(245, 245, 245)
		for i, col := range statementColumns {
			ln := 0
			if i == len(statementColumns)-1 {
				ln = 1
			}
			pdf.CellFormat(col.width, 8, col.title, "1", ln, "C", true, 0, "")
		}
		pdf.SetFont("Helvetica", "", 8)
	}
	header()

	for i, line := range lines {
		if i >= MaxStatementLines {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.CellFormat(0, 7, "Truncated: too many transactions for one statement", "1", 1, "C", false, 0, "")
			break
		}
		if pdf.GetY() > 270 {
			pdf.AddPage()
			header()
		}

		amount := line.Amount.StringFixed(2)
		if line.Type == domain.TransactionTypeExpense {
			amount = "-" + amount
		}
		cells := []string{
			line.Date.Format("2006-01-02"),
			strings.ToUpper(string(line.Type)),
			tr(trimTo(line.WalletName, 20)),
			tr(trimTo(line.CategoryName, 22)),
			tr(trimTo(line.Note, 28)),
			amount,
		}
		for j, col := range statementColumns {
			ln := 0
			if j == len(statementColumns)-1 {
				ln = 1
			}
			pdf.CellFormat(col.width, 7, cells[j], "1", ln, col.align, false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render statement: %w", err)
	}
	return buf.Bytes(), nil
}

func trimTo(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
