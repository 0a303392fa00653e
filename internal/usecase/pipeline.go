package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"NewsPoster/internal/domain"
	"NewsPoster/internal/ports"
	"NewsPoster/internal/retry"
)

// PipelineDeps wires all driven adapters into the delivery pipeline.
type PipelineDeps struct {
	Source    ports.FeedSource
	Store     ports.SeenStore
	Generator ports.Generator
	Publisher ports.Publisher
	Extractor ports.ContentExtractor
	Logger    *slog.Logger
	MaxPerRun int
	RetryCfg  retry.Config
}

// Pipeline implements one batch pass: discover candidate entries, deliver
// each new one, and commit identifiers to the seen store as deliveries are
// confirmed. It owns the seen set exclusively for the duration of a run.
type Pipeline struct {
	source    ports.FeedSource
	store     ports.SeenStore
	generator ports.Generator
	publisher ports.Publisher
	extractor ports.ContentExtractor
	logger    *slog.Logger
	maxPerRun int
	retryCfg  retry.Config
	now       func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retryCfg := deps.RetryCfg
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.GenerationConfig()
	}
	return &Pipeline{
		source:    deps.Source,
		store:     deps.Store,
		generator: deps.Generator,
		publisher: deps.Publisher,
		extractor: deps.Extractor,
		logger:    logger,
		maxPerRun: deps.MaxPerRun,
		retryCfg:  retryCfg,
		now:       time.Now,
	}
}

// Run executes one pass. Per-entry failures never abort the pass; only a
// store that cannot even be loaded does, since running without the seen set
// would re-deliver everything.
func (p *Pipeline) Run(ctx context.Context) (domain.RunReport, error) {
	var report domain.RunReport

	log := p.logger.With("run_id", uuid.NewString())

	seen, err := p.store.Load()
	if err != nil {
		return report, fmt.Errorf("load seen set: %w", err)
	}

	entries, err := p.source.FetchAll(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch sources: %w", err)
	}
	report.Fetched = len(entries)

	// Filtering preserves fetch order: declared source order first, feed
	// order within a source.
	candidates := make([]domain.Entry, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.ID()]; ok {
			continue
		}
		candidates = append(candidates, entry)
	}
	report.New = len(candidates)

	if p.maxPerRun > 0 && len(candidates) > p.maxPerRun {
		log.Info("capping candidates for this run",
			"new", len(candidates), "cap", p.maxPerRun)
		candidates = candidates[:p.maxPerRun]
	}

	log.Info("pipeline pass starting",
		"fetched", report.Fetched, "candidates", len(candidates))

	for _, entry := range candidates {
		status := p.process(ctx, log, entry)
		report.Record(status)

		// Delivered and permanently-unprocessable entries are committed
		// immediately so a crash later in the run never re-posts them.
		if status == domain.StatusDelivered || status == domain.StatusSkippedEmpty {
			seen[entry.ID()] = struct{}{}
			if err := p.store.Save(seen); err != nil {
				log.Error("seen set not persisted; entry may be re-delivered next run",
					"id", entry.ID(), "error", err)
			}
		}

		if ctx.Err() != nil {
			break
		}
	}

	log.Info("pipeline pass finished",
		"delivered", report.Delivered, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

func (p *Pipeline) process(ctx context.Context, log *slog.Logger, entry domain.Entry) domain.DeliveryStatus {
	id := entry.ID()

	body := p.resolveBody(ctx, log, entry)
	if strings.TrimSpace(body) == "" && strings.TrimSpace(entry.Title) == "" {
		// Nothing to work with, and nothing will change next run: marking
		// the entry seen stops it from looping forever.
		log.Warn("entry has no usable text, skipping permanently", "id", id)
		return domain.StatusSkippedEmpty
	}

	prompt := BuildPrompt(entry, body, p.now())

	var generated string
	err := retry.WithBackoff(ctx, p.retryCfg, log, func() error {
		text, genErr := p.generator.Generate(ctx, prompt)
		if genErr != nil {
			return genErr
		}
		generated = text
		return nil
	})
	if err != nil {
		log.Error("generation failed, entry stays eligible for retry",
			"id", id, "error", err)
		return domain.StatusFailed
	}

	title, articleBody := SplitTitleBody(generated)
	published := SourceAttribution(entry) + "\n\n" + articleBody

	if err := p.publisher.Publish(ctx, title, published); err != nil {
		log.Error("publish failed, entry stays eligible for retry",
			"id", id, "error", err)
		return domain.StatusFailed
	}

	log.Info("entry delivered", "id", id, "title", title)
	return domain.StatusDelivered
}

// resolveBody picks the text the prompt is grounded on. Sparse feed bodies
// are optionally enriched from the article page; enrichment failures degrade
// to the feed-provided summary.
func (p *Pipeline) resolveBody(ctx context.Context, log *slog.Logger, entry domain.Entry) string {
	body := entry.Body

	if p.extractor == nil || entry.Link == "" {
		return body
	}
	if domain.ClassifyRichness(entry) == domain.RichnessRich {
		return body
	}

	fullText, err := p.extractor.Extract(ctx, entry.Link)
	if err != nil {
		log.Debug("full-text enrichment failed, using feed summary",
			"id", entry.ID(), "error", err)
		return body
	}
	return fullText
}
