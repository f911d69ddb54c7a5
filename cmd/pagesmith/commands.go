package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pagesmith/internal/enumerator"
	"pagesmith/internal/model"
	"pagesmith/internal/orchestrator"
	"pagesmith/internal/project"
	"pagesmith/internal/quality"
	"pagesmith/internal/selection"
	"pagesmith/internal/storage"

	"github.com/spf13/cobra"
)

var enumerateCmd = &cobra.Command{
	Use:   "enumerate <project.yaml>",
	Short: "Expand a template over its datasets into potential pages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := project.Load(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("🚀 Enumerating %s (%s)\n", p.Template.ID, p.Template.Pattern)
		en := enumerator.New(a.store, a.cfg.Generation.MaxCombinations, a.log)
		res, err := en.Enumerate(cmd.Context(), p.Template, p.Datasets)
		if err != nil {
			return fmt.Errorf("enumeration failed: %w", err)
		}
		fmt.Printf("✅ %d combinations, %d new potential pages\n", res.TotalCombinations, res.Inserted)
		return nil
	},
}

var (
	listStatus   string
	listSearch   string
	listPage     int
	listPageSize int
)

var listCmd = &cobra.Command{
	Use:   "list <template-id>",
	Short: "Preview potential pages of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		listing, err := selection.NewGate(a.store).List(cmd.Context(), selection.Query{
			TemplateID: args[0],
			Status:     storage.PageStatus(listStatus),
			Search:     listSearch,
			Page:       listPage,
			PageSize:   listPageSize,
		})
		if err != nil {
			return err
		}

		for _, p := range listing.Pages {
			mark := " "
			if p.IsGenerated {
				mark = "✓"
			}
			fmt.Printf("%s %s  %s\n", mark, p.ID, p.Title)
		}
		pages := (listing.Total + listing.PageSize - 1) / listing.PageSize
		fmt.Printf("📄 page %d/%d, %d matching pages\n", listing.Page, max(pages, 1), listing.Total)
		return nil
	},
}

var (
	genAll        bool
	genFailedFrom string
	genForce      bool
	genPolicy     string
	genBatchSize  int
	genWorkers    int
	genReport     string
)

var generateCmd = &cobra.Command{
	Use:   "generate <project.yaml> [page-id...]",
	Short: "Generate content for selected potential pages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := project.Load(args[0])
		if err != nil {
			return err
		}

		ids, err := selectIDs(ctx, a, p.Template.ID, args[1:])
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("✨ Nothing to generate.")
			return nil
		}

		orch, err := a.orchestrator(ctx)
		if err != nil {
			return fmt.Errorf("failed to set up generation: %w", err)
		}

		report := genReport
		if report == "" {
			report = a.reportPath(p.Template.ID)
		}

		fmt.Printf("🚀 Generating %d pages for %s\n", len(ids), p.Template.ID)
		res, err := orch.Run(ctx, orchestrator.Request{
			Template:   p.Template,
			IDs:        ids,
			Force:      genForce,
			BatchSize:  genBatchSize,
			Workers:    genWorkers,
			Policy:     orchestrator.Policy(genPolicy),
			ReportPath: report,
			OnBatch: func(job model.BatchJob) {
				fmt.Printf("   ⏳ %d/%d processed (%d ok, %d failed, %d duplicate)\n",
					job.Processed, job.Total, job.Succeeded, job.Failed, job.SkippedDuplicate)
			},
		})
		if err != nil {
			return fmt.Errorf("generation failed: %w", err)
		}

		fmt.Printf("✅ Job %s: %d generated, %d failed, %d duplicates skipped, %d already generated\n",
			res.JobID, len(res.Succeeded), len(res.Failed), len(res.SkippedDuplicate), len(res.SkippedGenerated))
		if len(res.Flagged) > 0 {
			fmt.Printf("⚠️  %d pages flagged for review\n", len(res.Flagged))
		}
		for _, f := range res.Failed {
			fmt.Printf("   ❌ %s: %s\n", f.ID, f.Reason)
		}
		if res.Cancelled {
			fmt.Printf("🛑 Cancelled. Resume with: pagesmith generate %s --failed-from %s\n", args[0], res.JobID)
		}
		if report != "" {
			fmt.Printf("💾 Report saved to %s\n", report)
		}
		return nil
	},
}

// selectIDs resolves the explicit ids, --all or --failed-from into one list.
func selectIDs(ctx context.Context, a *app, templateID string, explicit []string) ([]string, error) {
	switch {
	case genFailedFrom != "":
		failures, err := a.store.ListJobFailures(ctx, genFailedFrom)
		if err != nil {
			return nil, fmt.Errorf("failed to load job %s failures: %w", genFailedFrom, err)
		}
		ids := make([]string, 0, len(failures))
		for _, f := range failures {
			ids = append(ids, f.ID)
		}
		return append(ids, explicit...), nil
	case genAll:
		status := storage.StatusUngenerated
		if genForce {
			status = storage.StatusAll
		}
		return selection.NewGate(a.store).AllIDs(ctx, templateID, status)
	case len(explicit) == 0:
		return nil, errors.New("no pages selected: pass page ids, --all or --failed-from")
	}
	return explicit, nil
}

var progressCmd = &cobra.Command{
	Use:   "progress <job-id>",
	Short: "Show progress of a generation job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		job, err := a.store.GetJob(cmd.Context(), args[0])
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("unknown job %s", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("📊 Job %s (%s): %s\n", job.ID, job.TemplateID, job.Status)
		fmt.Printf("   %d/%d processed, %d succeeded, %d failed, %d duplicates\n",
			job.Processed, job.Total, job.Succeeded, job.Failed, job.SkippedDuplicate)

		failures, err := a.store.ListJobFailures(cmd.Context(), job.ID)
		if err != nil {
			return err
		}
		for _, f := range failures {
			fmt.Printf("   ❌ %s: %s\n", f.ID, f.Reason)
		}
		return nil
	},
}

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <page-id>",
	Short: "Print a generated page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		page, err := a.store.GetGeneratedPage(cmd.Context(), args[0])
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("page %s has not been generated", args[0])
		}
		if err != nil {
			return err
		}

		if showJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(page.Record()); err != nil {
				return err
			}
			return nil
		}

		v := page.Variation
		fmt.Printf("# %s\n\n", page.Title)
		fmt.Printf("<!-- slug=%s type=%s model=%t provider=%s fallback=%q quality=%s -->\n\n",
			page.Slug, v.ContentType, v.UsedModel, v.Provider, v.FallbackReason, quality.Summary(page.Metrics))
		fmt.Println(page.Body())
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <template-id>",
	Short: "Delete all potential pages of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.store.ClearPotentialPages(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("🧹 Removed %d potential pages of %s\n", n, args[0])
		return nil
	},
}

var historyTop int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or reset the variation history",
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the most used variation options",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		h, err := a.history(cmd.Context())
		if err != nil {
			return err
		}
		top := h.TopUsage(historyTop)
		if len(top) == 0 {
			fmt.Println("📭 History is empty.")
			return nil
		}
		fmt.Printf("📈 Top %d variation options (window %d patterns, %d recorded)\n",
			len(top), h.Window(), len(h.RecentPatterns()))
		for _, kc := range top {
			line := fmt.Sprintf("   %-40s %6d", kc.Key, kc.Count)
			if perf, ok := h.Performance(kc.Key); ok {
				line += fmt.Sprintf("  (%d/%d passed)", perf.Successes, perf.Total)
			}
			fmt.Println(strings.TrimRight(line, " "))
		}
		return nil
	},
}

var historyResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear usage counters, recent patterns and performance stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		h, err := a.history(cmd.Context())
		if err != nil {
			return err
		}
		if err := h.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("failed to reset history: %w", err)
		}
		fmt.Println("🧹 Variation history reset.")
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "all", "Filter by status: all, generated, ungenerated")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Case-insensitive title search")
	listCmd.Flags().IntVarP(&listPage, "page", "p", 1, "Page number")
	listCmd.Flags().IntVar(&listPageSize, "page-size", selection.DefaultPageSize, "Pages per listing page")

	generateCmd.Flags().BoolVar(&genAll, "all", false, "Generate every ungenerated page (every page with --force)")
	generateCmd.Flags().StringVar(&genFailedFrom, "failed-from", "", "Re-run the failed pages of a previous job")
	generateCmd.Flags().BoolVarP(&genForce, "force", "f", false, "Regenerate pages that already have content")
	generateCmd.Flags().StringVar(&genPolicy, "policy", "", "Regeneration policy for existing rows: update or reject")
	generateCmd.Flags().IntVar(&genBatchSize, "batch-size", 0, "Pages per batch (defaults to config)")
	generateCmd.Flags().IntVarP(&genWorkers, "workers", "w", 0, "Concurrent generations per batch (defaults to config)")
	generateCmd.Flags().StringVarP(&genReport, "report", "r", "", "Write the run report to this path")

	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the export record as JSON")

	historyShowCmd.Flags().IntVarP(&historyTop, "top", "n", 20, "Number of options to show")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyResetCmd)
}
