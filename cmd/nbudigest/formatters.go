package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pevans/nbudigest/discovery"
	"github.com/pevans/nbudigest/history"
	"github.com/pevans/nbudigest/newsfeed"
)

// printResult prints the counters of one extraction pass
func printResult(result *discovery.Result, path string) {
	fmt.Printf("Extracted:        %d\n", result.Extracted)
	fmt.Printf("Already tracked:  %d\n", result.TrackedSkipped)
	fmt.Printf("Outside date:     %d\n", result.FilteredOut)
	fmt.Printf("Duplicates:       %d\n", result.Duplicates)
	fmt.Printf("Dropped:          %d\n", result.Dropped)
	fmt.Printf("Saved %d records to %s\n", len(result.Records), path)
}

// printRecordTable prints records in human-readable form
func printRecordTable(records []newsfeed.NewsRecord) {
	if len(records) == 0 {
		fmt.Println("No records to display.")
		return
	}

	for _, rec := range records {
		marker := " "
		if rec.IsReport {
			marker = "R"
		}

		fmt.Printf("%s %s\n", marker, truncate(rec.Title, 70))
		date := rec.DateString()
		if date == "" {
			date = "no date"
		}
		fmt.Printf("   %s | %s\n", rec.Category, date)
		if rec.Summary != "" {
			fmt.Printf("   %s\n", truncate(rec.Summary, 150))
		} else if rec.Content != nil {
			fmt.Printf("   [%s] %s\n", rec.Content.Status, truncate(rec.Content.String(), 150))
		}
		if link := rec.LinkString(); link != "" {
			fmt.Printf("   URL: %s\n", link)
		}
		fmt.Println()
	}
	fmt.Printf("%d records\n", len(records))
}

// printRunTable prints runs newest first with local times
func printRunTable(runs []history.Run, loc *time.Location) {
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return
	}

	fmt.Printf("%-36s  %-8s  %-16s  %9s  %9s  %10s  %-4s  %s\n",
		"RUN ID", "TRIGGER", "STARTED", "EXTRACTED", "PROCESSED", "SUMMARIZED", "SENT", "STATUS")
	for _, run := range runs {
		sent := "no"
		if run.EmailSent {
			sent = "yes"
		}
		fmt.Printf("%-36s  %-8s  %-16s  %9d  %9d  %10d  %-4s  %s\n",
			run.RunID.String(),
			run.Trigger,
			run.StartedAt.In(loc).Format("2006-01-02 15:04"),
			run.Extracted,
			run.Processed,
			run.Summarized,
			sent,
			runStatus(run),
		)
	}
}

// runStatus describes how a run ended
func runStatus(run history.Run) string {
	if run.Succeeded() {
		return "ok"
	}
	if run.Error != nil {
		return "error: " + truncate(*run.Error, 60)
	}
	return "unfinished"
}

// printJSON prints v as indented JSON
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
