package dispatcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"radar/internal/metrics"
	"radar/internal/model"
	"radar/internal/notifier"
)

const DefaultScanLimit = 5

type Source interface {
	Fetch(ctx context.Context) ([]model.Item, error)
}

type RecordStore interface {
	Exists(ctx context.Context, link string) (bool, error)
	Store(ctx context.Context, record model.Record) error
}

type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Excerpter provides article text to enrich the prompt. Optional.
type Excerpter interface {
	Excerpt(ctx context.Context, link string) (string, error)
}

// Deps wires the collaborators into the dispatcher.
type Deps struct {
	Source     Source
	Records    RecordStore
	Summarizer Summarizer
	Notifier   Notifier
	Excerpter  Excerpter
	Metrics    *metrics.Metrics
	Logger     logrus.FieldLogger
	ScanLimit  int
}

// Dispatcher picks the first unseen feed entry, summarizes it, sends the
// summary and records the entry so it is never sent again.
type Dispatcher struct {
	source     Source
	records    RecordStore
	summarizer Summarizer
	notifier   Notifier
	excerpter  Excerpter
	metrics    *metrics.Metrics
	log        logrus.FieldLogger
	scanLimit  int
}

func New(deps Deps) *Dispatcher {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}

	if deps.ScanLimit <= 0 {
		deps.ScanLimit = DefaultScanLimit
	}

	return &Dispatcher{
		source:     deps.Source,
		records:    deps.Records,
		summarizer: deps.Summarizer,
		notifier:   deps.Notifier,
		excerpter:  deps.Excerpter,
		metrics:    deps.Metrics,
		log:        deps.Logger,
		scanLimit:  deps.ScanLimit,
	}
}

// Run executes the pipeline once. Every failure is reported through the
// returned Outcome.
func (d *Dispatcher) Run(ctx context.Context) Outcome {
	log := d.log.WithField("run_id", uuid.NewString())

	outcome := d.run(ctx, log)

	if d.metrics != nil {
		d.metrics.Runs.WithLabelValues(string(outcome.Status)).Inc()
	}

	return outcome
}

func (d *Dispatcher) run(ctx context.Context, log logrus.FieldLogger) Outcome {
	log.Info("fetching feed")

	items, err := d.source.Fetch(ctx)
	if err != nil {
		log.WithError(err).Error("feed fetch failed")
		return failure(fmt.Errorf("fetch feed: %w", err))
	}

	if len(items) == 0 {
		log.Info("no articles in feed")
		return Outcome{Status: StatusNoArticles}
	}

	item, found, err := d.selectUnseen(ctx, log, items)
	if err != nil {
		log.WithError(err).Error("history lookup failed")
		return failure(err)
	}

	if !found {
		log.Info("nothing new today")
		return Outcome{Status: StatusNothingNew}
	}

	log = log.WithFields(logrus.Fields{"title": item.Title, "link": item.Link})

	summary, err := d.summarize(ctx, log, item)
	if err != nil {
		log.WithError(err).Error("summarization failed")
		return failure(err)
	}

	// once delivery is attempted the record must be written, whatever the caller does
	ctx = context.WithoutCancel(ctx)

	if err := d.notifier.Notify(ctx, FormatMessage(summary, item.Link)); err != nil {
		// delivery failures never block recording
		log.WithError(err).Error("notification failed")
		if d.metrics != nil {
			d.metrics.NotificationFailures.Inc()
		}
	} else {
		log.Info("notification sent")
	}

	if err := d.records.Store(ctx, model.Record{Title: item.Title, Link: item.Link}); err != nil {
		log.WithError(err).Error("record insert failed")
		return failure(err)
	}

	log.Info("article recorded")

	return Outcome{Status: StatusProcessed}
}

// selectUnseen returns the first of the leading scanLimit items whose link
// is not in the store. Lookups stop at the first unseen item.
func (d *Dispatcher) selectUnseen(ctx context.Context, log logrus.FieldLogger, items []model.Item) (model.Item, bool, error) {
	if len(items) > d.scanLimit {
		items = items[:d.scanLimit]
	}

	for _, item := range items {
		seen, err := d.records.Exists(ctx, item.Link)
		if err != nil {
			return model.Item{}, false, err
		}

		if !seen {
			log.WithField("title", item.Title).Info("new article found")
			return item, true, nil
		}

		log.WithField("title", item.Title).Info("skipped, already sent")
	}

	return model.Item{}, false, nil
}

func (d *Dispatcher) summarize(ctx context.Context, log logrus.FieldLogger, item model.Item) (string, error) {
	var excerpt string

	if d.excerpter != nil {
		text, err := d.excerpter.Excerpt(ctx, item.Link)
		if err != nil {
			log.WithError(err).Warn("article text unavailable, summarizing from title")
		} else {
			excerpt = text
		}
	}

	log.Info("generating summary")

	start := time.Now()
	summary, err := d.summarizer.Summarize(ctx, BuildPrompt(item.Title, item.Link, excerpt))

	if d.metrics != nil {
		d.metrics.SummarizeDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	return summary, nil
}

// BuildPrompt renders the summarization request for one article.
func BuildPrompt(title, link, excerpt string) string {
	var b strings.Builder

	b.WriteString("Aja como um Engenheiro de Dados Senior e sarcástico.\n")
	b.WriteString("Resuma para newsletter (PT-BR) em 2 frases.\n")
	fmt.Fprintf(&b, "Artigo: %s\n", title)
	fmt.Fprintf(&b, "Link: %s\n", link)

	if excerpt != "" {
		fmt.Fprintf(&b, "Trecho: %s\n", excerpt)
	}

	return b.String()
}

// FormatMessage renders the Telegram message for a summary.
func FormatMessage(summary, link string) string {
	const msgFormat = "🚨 *RADAR DADOS* 🚨\n\n%s\n\n🔗 [Ler Original](%s)"

	return fmt.Sprintf(msgFormat, strings.TrimSpace(summary), notifier.EscapeLink(link))
}
