package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pressroomhq/pressroom/approval"
	"github.com/pressroomhq/pressroom/config"
	"github.com/pressroomhq/pressroom/llm"
	"github.com/pressroomhq/pressroom/output"
	"github.com/pressroomhq/pressroom/pipeline"
	"github.com/pressroomhq/pressroom/stages"
)

func runCmd() *cobra.Command {
	var (
		audience    string
		targetWords int
		sections    []string
		related     []string
		sources     []string
		approveMode string
		outputDir   string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run TOPIC",
		Short: "Produce an article for a topic",
		Long: `Run drives one topic through the full production pipeline and writes
the published article to the output directory. The command exits non-zero
when the run fails or is rejected at a checkpoint.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := pipeline.Request{
				Topic:       args[0],
				Audience:    audience,
				TargetWords: targetWords,
				Sections:    sections,
				Related:     related,
				Sources:     sources,
			}
			return runPipeline(cmd.Context(), req, approveMode, outputDir, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&audience, "audience", "", "Intended readership")
	cmd.Flags().IntVar(&targetWords, "words", 0, "Target article length in words")
	cmd.Flags().StringArrayVar(&sections, "section", nil, "Required section heading (repeatable)")
	cmd.Flags().StringArrayVar(&related, "related", nil, "Related article name for cross-linking (repeatable)")
	cmd.Flags().StringArrayVar(&sources, "source", nil, "Source URL for research (repeatable)")
	cmd.Flags().StringVar(&approveMode, "approve-mode", "", "Override approval mode (auto, console, nats)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Override output directory")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

func runPipeline(ctx context.Context, req pipeline.Request, approveMode, outputDir, metricsAddr string) error {
	cfg, err := config.NewLoader(slog.Default()).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if approveMode != "" {
		cfg.Approval.Mode = approveMode
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if metricsAddr != "" {
		go serveMetrics(metricsAddr)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, cleanup, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	outcome := orch.Run(ctx, req)
	printOutcome(outcome)

	if !outcome.Succeeded() {
		return fmt.Errorf("run failed at %s: %s", outcome.FailedAt, outcome.Message)
	}
	return nil
}

// buildOrchestrator assembles the pipeline from configuration. The returned
// cleanup closes any external connections.
func buildOrchestrator(cfg *config.Config) (*pipeline.Orchestrator, func(), error) {
	cleanup := func() {}

	registry, err := cfg.BuildRegistry()
	if err != nil {
		return nil, nil, fmt.Errorf("build model registry: %w", err)
	}

	client := llm.NewClient(registry)

	var researchOpts []stages.ResearchOption
	if cfg.Research.FetchSources {
		fetcher := stages.NewSourceFetcher(
			stages.WithMaxExcerpt(cfg.Research.MaxExcerptBytes),
			stages.WithFetchHTTPClient(&http.Client{Timeout: cfg.Research.FetchTimeout}),
		)
		researchOpts = append(researchOpts, stages.WithSourceFetcher(fetcher))
	}

	pipelineStages := pipeline.Stages{
		Research:  stages.NewResearchStage(client, researchOpts...),
		Writer:    stages.NewWriterStage(client, nil),
		FactCheck: stages.NewFactCheckStage(client, nil),
		Editor:    stages.NewEditorStage(client, nil),
		Critic:    stages.NewCriticStage(client, nil),
	}

	approver, approverCleanup, err := buildApprover(cfg)
	if err != nil {
		return nil, nil, err
	}
	if approverCleanup != nil {
		cleanup = approverCleanup
	}

	gate := pipeline.NewGate(pipeline.GateConfig{
		AfterResearch:  cfg.Approval.AfterResearch,
		AfterDraft:     cfg.Approval.AfterDraft,
		AfterFactCheck: cfg.Approval.AfterFactCheck,
		BeforePublish:  cfg.Approval.BeforePublish,
	}, approver)

	store, err := output.NewStore(cfg.Output.Dir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open output store: %w", err)
	}

	orch := pipeline.New(pipelineStages, gate, store, pipeline.Config{
		MaxRevisionCycles: cfg.Pipeline.MaxRevisionCycles,
		MinEditorScore:    cfg.Pipeline.MinEditorScore,
		OnRequestChanges:  pipeline.ChangesPolicy(cfg.Approval.OnRequestChanges),
		StageTimeout:      cfg.Pipeline.StageTimeout,
	})

	return orch, cleanup, nil
}

// buildApprover creates the configured decision-maker. For NATS mode the
// returned cleanup closes the connection.
func buildApprover(cfg *config.Config) (pipeline.Approver, func(), error) {
	switch cfg.Approval.Mode {
	case "auto":
		return &approval.AutoApprover{}, nil, nil

	case "console":
		return approval.NewConsoleApprover(), nil, nil

	case "nats":
		conn, err := nats.Connect(cfg.Approval.NATS.URL, nats.Name(appName))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to NATS at %s: %w", cfg.Approval.NATS.URL, err)
		}
		approver := approval.NewNATSApprover(conn,
			approval.WithSubject(cfg.Approval.NATS.Subject),
			approval.WithTimeout(cfg.Approval.NATS.Timeout),
		)
		return approver, conn.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown approval mode %q", cfg.Approval.Mode)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("Metrics server stopped", "addr", addr, "error", err)
	}
}

func printOutcome(outcome *pipeline.Outcome) {
	if outcome.Succeeded() {
		fmt.Printf("Published: %s\n", outcome.Location)
		if outcome.Item != nil {
			fmt.Printf("Revisions: %d\n", outcome.Item.Revisions())
		}
		fmt.Printf("Elapsed: %s\n", outcome.Elapsed.Round(time.Millisecond))
		return
	}

	fmt.Printf("Failed at %s: %s\n", outcome.FailedAt, outcome.Message)
	if outcome.DebugLocation != "" {
		fmt.Printf("Debug snapshot: %s\n", outcome.DebugLocation)
	}
}
