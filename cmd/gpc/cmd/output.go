package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printCompareResult(r *domain.AggregateResult) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Status:\t%s\n", r.Status)
	tw.writef("Locale:\t%s\n", r.Locale)
	tw.writef("Cached:\t%v\n", r.Cached)

	if r.Status == domain.StatusNoResults {
		tw.writef("Reason:\t%s\n", r.Reason)
		for src, msg := range r.Errors {
			tw.writef("Error (%s):\t%s\n", src, msg)
		}
		return tw.finish()
	}

	if r.OverallBest != nil {
		tw.writef("Best:\t%s %s at %s\n",
			formatPrice(r.OverallBest.Price, r.OverallBest.Currency),
			truncate(r.OverallBest.Title, 50),
			r.OverallBest.Source,
		)
	}
	tw.writef("\n")
	tw.writef("SOURCE\tPRICE\tTITLE\tURL\n")
	for i := range r.AllMatching {
		o := &r.AllMatching[i]
		tw.writef("%s\t%s\t%s\t%s\n",
			o.Source,
			formatPrice(o.Price, o.Currency),
			truncate(o.Title, 50),
			o.URL,
		)
	}
	return tw.finish()
}

func printFailuresTable(failures []domain.FailureRecord) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("IDENTIFIER\tLOCALE\tREASON\tATTEMPTS\tLAST SEEN\tERRORS\n")
	for i := range failures {
		f := &failures[i]
		tw.writef("%s\t%s\t%s\t%d\t%s\t%s\n",
			f.Identifier,
			f.Locale,
			f.Reason,
			f.AttemptCount,
			f.Timestamp.Format("2006-01-02 15:04:05"),
			truncate(formatErrors(f.Errors), 60),
		)
	}
	return tw.finish()
}

func printCacheStats(stats *domain.CacheStats) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Total:\t%d\n", stats.Total)
	tw.writef("Valid:\t%d\n", stats.Valid)
	tw.writef("Expired:\t%d\n", stats.Expired)
	return tw.finish()
}

func formatErrors(errs map[domain.Source]string) string {
	if len(errs) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(errs))
	for src, msg := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s", src, msg))
	}
	return strings.Join(parts, "; ")
}

func formatPrice(price float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.2f %s", price, currency)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
