package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/calctutor/internal/llm"
	"github.com/abhisek/calctutor/internal/store"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect recorded API calls (Assistants API and question generation)",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent API events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		source, _ := cmd.Flags().GetString("source")
		operation, _ := cmd.Flags().GetString("operation")
		thread, _ := cmd.Flags().GetString("thread")
		since, _ := cmd.Flags().GetDuration("since")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		opts := store.QueryOpts{Limit: limit, Source: source, Operation: operation, ThreadID: thread}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		events, err := s.Events().QueryAPIEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No API events found.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-30s  %-20s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Operation", "Model", "In", "Out", "Ms", "OK")
		fmt.Fprintln(out, strings.Repeat("─", 110))

		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-30s  %-20s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Source+"/"+e.Operation, 30),
				truncate(e.Model, 20),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var eventsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View the full request/response of an API event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.Events().GetAPIEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		writeEvent(cmd.OutOrStdout(), e)
		return nil
	},
}

func writeEvent(out io.Writer, e *store.APIEvent) {
	sep := strings.Repeat("─", 60)

	fmt.Fprintf(out, "ID:        %d\n", e.ID)
	fmt.Fprintf(out, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Source:    %s\n", e.Source)
	fmt.Fprintf(out, "Operation: %s\n", e.Operation)
	if e.Provider != "" {
		fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
	}
	if e.Model != "" {
		fmt.Fprintf(out, "Model:     %s\n", e.Model)
	}
	if e.ThreadID != "" {
		fmt.Fprintf(out, "Thread:    %s\n", e.ThreadID)
	}
	if e.RunID != "" {
		fmt.Fprintf(out, "Run:       %s\n", e.RunID)
	}
	fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
	fmt.Fprintf(out, "Latency:   %dms\n", e.LatencyMs)
	fmt.Fprintf(out, "Success:   %v\n", e.Success)
	if e.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:     %s\n", e.ErrorMessage)
	}

	for _, part := range []struct{ title, body string }{
		{"REQUEST", e.RequestBody},
		{"RESPONSE", e.ResponseBody},
	} {
		fmt.Fprintln(out)
		fmt.Fprintln(out, sep)
		fmt.Fprintln(out, part.title)
		fmt.Fprintln(out, sep)
		if part.body != "" {
			fmt.Fprintln(out, part.body)
		} else {
			fmt.Fprintln(out, "(not captured)")
		}
	}
}

var eventsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show call counts, token usage and estimated LLM cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		stats, err := s.Events().UsageByOperation(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(out, "No API usage recorded yet.")
			return nil
		}

		fmt.Fprintln(out, "Usage by Operation")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		fmt.Fprintf(out, "%-30s  %6s  %6s  %10s  %10s  %8s\n",
			"Operation", "Calls", "Failed", "Input", "Output", "Avg Ms")
		fmt.Fprintln(out, strings.Repeat("─", 80))

		var totalCalls, totalFailed, totalIn, totalOut int
		for _, st := range stats {
			fmt.Fprintf(out, "%-30s  %6d  %6d  %10d  %10d  %8d\n",
				truncate(st.Key, 30), st.Calls, st.Failures, st.InputTokens, st.OutputTokens, st.AvgLatencyMs)
			totalCalls += st.Calls
			totalFailed += st.Failures
			totalIn += st.InputTokens
			totalOut += st.OutputTokens
		}

		fmt.Fprintln(out, strings.Repeat("─", 80))
		fmt.Fprintf(out, "%-30s  %6d  %6d  %10d  %10d\n",
			"TOTAL", totalCalls, totalFailed, totalIn, totalOut)

		modelUsage, err := s.Events().UsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(modelUsage) > 0 {
			writeCosts(out, modelUsage)
		}
		return nil
	},
}

// writeCosts prints estimated question-generation cost per model.
func writeCosts(out io.Writer, usage []store.UsageStat) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Estimated LLM Cost (USD)")
	fmt.Fprintln(out, strings.Repeat("─", 80))
	fmt.Fprintf(out, "%-32s  %6s  %10s  %10s  %10s\n",
		"Model", "Calls", "Input", "Output", "Cost")
	fmt.Fprintln(out, strings.Repeat("─", 80))

	var totalCost float64
	var unknownModels []string
	for _, mu := range usage {
		cost := llm.LookupCost(mu.Key)
		if cost == nil {
			unknownModels = append(unknownModels, mu.Key)
			fmt.Fprintf(out, "%-32s  %6d  %10d  %10d  %10s\n",
				truncate(mu.Key, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, "?")
			continue
		}
		c := cost.Cost(mu.InputTokens, mu.OutputTokens)
		totalCost += c
		fmt.Fprintf(out, "%-32s  %6d  %10d  %10d  %10s\n",
			truncate(mu.Key, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, formatCost(c))
	}

	fmt.Fprintln(out, strings.Repeat("─", 80))
	label := "TOTAL"
	if len(unknownModels) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Fprintf(out, "%-32s  %6s  %10s  %10s  %10s\n",
		label, "", "", "", formatCost(totalCost))

	if len(unknownModels) > 0 {
		fmt.Fprintf(out, "\nPricing unavailable for: %s\n", strings.Join(unknownModels, ", "))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	eventsListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	eventsListCmd.Flags().StringP("source", "s", "", "Filter by source (assistant, llm)")
	eventsListCmd.Flags().StringP("operation", "o", "", "Filter by operation (e.g. create_run, question-gen)")
	eventsListCmd.Flags().String("thread", "", "Filter by thread id")
	eventsListCmd.Flags().Duration("since", 0, "Only events newer than this (e.g. 24h)")

	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsViewCmd)
	eventsCmd.AddCommand(eventsStatsCmd)
}
