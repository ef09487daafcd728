package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"numviz/app"
	"numviz/app/export"
	"numviz/app/histogram"
)

const (
	barWidth       = 40
	membersPreview = 20
)

// printView writes the statistics block and the histogram table
func printView(w io.Writer, v *app.View) error {
	if v == nil {
		return fmt.Errorf("no sample loaded")
	}
	s := v.Stats

	fmt.Fprintf(w, "Sample: %s (%d values, version %d)\n\n", v.Snapshot.Source, s.N, v.Snapshot.Version)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Min\t%s\n", formatStat(s.Min))
	fmt.Fprintf(tw, "Max\t%s\n", formatStat(s.Max))
	fmt.Fprintf(tw, "Mean\t%s\n", formatStat(s.Mean))
	fmt.Fprintf(tw, "Std dev\t%s%s\n", formatStat(s.StdDev), approx(s.StdDevSampled))
	fmt.Fprintf(tw, "Median\t%s%s\n", formatStat(s.Median), approx(s.MedianSampled))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nHistogram (%d buckets, width %s)\n", v.Intervals, formatStat(v.Histogram.Width))
	if err := printHistogram(w, v.Histogram, v.Selection); err != nil {
		return err
	}

	if id, ok := v.Selection.ID(); ok {
		if b, ok := v.Histogram.Bucket(id); ok {
			printMembers(w, b)
		}
	}
	return nil
}

func printHistogram(w io.Writer, h *histogram.Histogram, sel histogram.Selection) error {
	peak := 0
	for _, b := range h.Buckets {
		peak = max(peak, b.Count)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " \t#\tRange\tCount\t%\tDensity\t")
	for _, b := range h.Buckets {
		mark := " "
		if sel.Is(b.ID) {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%.2f\t%.4g\t%s\n",
			mark, b.ID, b.Label(), b.Count, b.Percentage, b.Density, bar(b.Count, peak))
	}
	return tw.Flush()
}

func bar(count, peak int) string {
	if peak == 0 {
		return ""
	}
	n := count * barWidth / peak
	if n == 0 && count > 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}

func printMembers(w io.Writer, b histogram.Bucket) {
	fmt.Fprintf(w, "\nBucket %d (%s): %d values\n", b.ID, b.Label(), b.Count)
	for i, m := range b.Members {
		if i == membersPreview {
			fmt.Fprintf(w, "  ... %d more\n", len(b.Members)-membersPreview)
			break
		}
		s, _ := export.FormatValue(m)
		fmt.Fprintf(w, "  %s\n", s)
	}
}

func printPage(w io.Writer, values []float64, page, total int) error {
	if len(values) == 0 {
		return fmt.Errorf("page %d is out of range (1-%d)", page, total)
	}
	fmt.Fprintf(w, "\nValues, page %d of %d\n", page, total)
	for _, v := range values {
		s, err := export.FormatValue(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, s)
	}
	return nil
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func approx(sampled bool) string {
	if sampled {
		return " (estimated from a subsample)"
	}
	return ""
}
