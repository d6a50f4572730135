// Package insights turns a list of resume analysis records into the views the
// dashboard renders: a match score time series, grouped skill counts, strong
// and weak skill distributions, a summary, a table and a CSV export.
//
// Everything here is pure. Each Build applies the date filter once and derives
// every view from that single filtered slice, so all index-aligned sequences
// have the same length.
package insights
