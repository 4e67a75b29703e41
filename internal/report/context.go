package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/KaramelBytes/salesloom-cli/internal/aggregate"
	"github.com/KaramelBytes/salesloom-cli/internal/sales"
)

// contextTopProducts is how many named products the prompt lists.
const contextTopProducts = 3

const lengthHint = "Length: 200-300 words."

// FormatSummary renders the one-line summary block shared by every persona.
func FormatSummary(s aggregate.Summary) string {
	parts := []string{
		"Total Sales: " + aggregate.FormatMoney(s.TotalSales),
		"Transactions: " + humanize.Comma(int64(s.RecordCount)),
		fmt.Sprintf("Average Order: $%.2f", s.AverageSales),
		fmt.Sprintf("Product Portfolio: %d products", s.UniqueProducts),
		fmt.Sprintf("Market Coverage: %d regions", s.UniqueRegions),
	}
	if s.DateRange != nil {
		parts = append(parts, fmt.Sprintf("Period: %s to %s", s.DateRange.Start, s.DateRange.End))
	}
	return strings.Join(parts, " | ")
}

// BuildContext is the data block appended to each persona prompt.
func BuildContext(s aggregate.Summary) string {
	lines := []string{"Summary: " + FormatSummary(s)}

	var top []string
	for _, p := range s.TopProducts {
		if p.Product == "" || strings.EqualFold(p.Product, sales.Unknown) {
			continue
		}
		top = append(top, fmt.Sprintf("%s (%s)", p.Product, aggregate.FormatMoney(p.TotalSales)))
		if len(top) == contextTopProducts {
			break
		}
	}
	if len(top) > 0 {
		lines = append(lines, "Top Products: "+strings.Join(top, ", "))
	}
	if s.DateRange != nil {
		lines = append(lines, fmt.Sprintf("Date Range: %s to %s", s.DateRange.Start, s.DateRange.End))
	}
	if len(s.Insights) > 0 {
		lines = append(lines, "Insights:")
		for _, in := range s.Insights {
			lines = append(lines, "- "+in)
		}
	}
	return strings.Join(lines, "\n")
}

// UserMessage wraps the data block with the length hint.
func UserMessage(context string) string {
	return "Use the following data:\n" + context + "\n\n" + lengthHint
}

// BuildPrompt is the full text a persona call sends, as printed by dry runs.
func BuildPrompt(p Persona, context string) string {
	return p.Instructions + "\n\n" + UserMessage(context)
}

// Title is the draft headline for persona p in the month of date.
func Title(p Persona, date time.Time) string {
	return fmt.Sprintf("%s Report - %s", p.Name, date.Format("January 2006"))
}
