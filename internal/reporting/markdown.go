package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Ingestion Run Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	status := "FAILED"
	if r.Success {
		status = "SUCCESS"
	}
	sb.WriteString(fmt.Sprintf("Run: %s | State: %s | Status: %s\n\n", r.RunID, r.State, status))
	sb.WriteString(fmt.Sprintf("Window: %s to %s (%.1fs)\n\n",
		r.StartedAt.Format(time.RFC3339), r.CompletedAt.Format(time.RFC3339),
		r.CompletedAt.Sub(r.StartedAt).Seconds()))

	// Totals
	sb.WriteString("## Totals\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Records Stored | %d |\n", r.RecordsStored))
	sb.WriteString(fmt.Sprintf("| Records Updated | %d |\n", r.RecordsUpdated))
	sb.WriteString(fmt.Sprintf("| Sources Processed | %d |\n", r.SourcesProcessed))
	sb.WriteString("\n")

	// Per-source outcomes
	sb.WriteString("## Sources\n\n")
	if len(r.Sources) > 0 {
		sb.WriteString("| Source | Status | Units | Stored | Updated | API Calls | Response Time (s) | Errors | Warnings |\n")
		sb.WriteString("|--------|--------|-------|--------|---------|-----------|-------------------|--------|----------|\n")
		for _, s := range r.Sources {
			st := "FAILED"
			if s.Success {
				st = "OK"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %d | %.2f | %d | %d |\n",
				s.Source, st, s.Units, s.RecordsStored, s.RecordsUpdated,
				s.APICalls, s.ResponseTimeSeconds, s.Errors, s.Warnings))
		}
	} else {
		sb.WriteString("No sources processed.\n")
	}
	sb.WriteString("\n")

	// Per-identifier accounting
	sb.WriteString("## Units\n\n")
	if len(r.Units) > 0 {
		sb.WriteString("| Source | Identifier | Stored | Updated | Errors |\n")
		sb.WriteString("|--------|------------|--------|---------|--------|\n")
		for _, u := range r.Units {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d |\n",
				u.Source, u.Identifier, u.RecordsStored, u.RecordsUpdated, u.Errors))
		}
	} else {
		sb.WriteString("No units processed.\n")
	}
	sb.WriteString("\n")

	// Errors (always shown if present)
	if len(r.Errors) > 0 {
		sb.WriteString("## Errors\n\n")
		for _, e := range r.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", e))
		}
		sb.WriteString("\n")
	}

	// Warnings
	if len(r.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	// Recent fetch audit
	if len(r.RecentFetches) > 0 {
		sb.WriteString("## Recent Fetches\n\n")
		sb.WriteString("| Source | Type | Zone | Status | Records | Response (ms) | Completed |\n")
		sb.WriteString("|--------|------|------|--------|---------|---------------|-----------|\n")
		for _, f := range r.RecentFetches {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %d | %s |\n",
				f.Source, f.SourceType, f.Zone, f.Status, f.Records,
				f.ResponseTimeMs, f.CompletedAt.Format(time.RFC3339)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
