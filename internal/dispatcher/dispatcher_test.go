package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radar/internal/metrics"
	"radar/internal/model"
)

type fakeSource struct {
	items []model.Item
	err   error
}

func (f *fakeSource) Fetch(ctx context.Context) ([]model.Item, error) {
	return f.items, f.err
}

type fakeStore struct {
	seen      map[string]bool
	lookups   []string
	stored    []model.Record
	existsErr error
	storeErr  error
}

func (f *fakeStore) Exists(ctx context.Context, link string) (bool, error) {
	f.lookups = append(f.lookups, link)
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.seen[link], nil
}

func (f *fakeStore) Store(ctx context.Context, record model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.storeErr != nil {
		return f.storeErr
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	f.seen[record.Link] = true
	f.stored = append(f.stored, record)
	return nil
}

type fakeSummarizer struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

type fakeNotifier struct {
	err      error
	messages []string
	onNotify func()
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) error {
	f.messages = append(f.messages, text)
	if f.onNotify != nil {
		f.onNotify()
	}
	return f.err
}

type fakeExcerpter struct {
	text string
	err  error
}

func (f *fakeExcerpter) Excerpt(ctx context.Context, link string) (string, error) {
	return f.text, f.err
}

type fixture struct {
	source     *fakeSource
	store      *fakeStore
	summarizer *fakeSummarizer
	notifier   *fakeNotifier
	metrics    *metrics.Metrics
	dispatcher *Dispatcher
}

func newFixture(items []model.Item, seen ...string) *fixture {
	f := &fixture{
		source:     &fakeSource{items: items},
		store:      &fakeStore{seen: map[string]bool{}},
		summarizer: &fakeSummarizer{text: "Mais um pipeline. Mais um incêndio."},
		notifier:   &fakeNotifier{},
		metrics:    metrics.New(prometheus.NewRegistry()),
	}

	for _, link := range seen {
		f.store.seen[link] = true
	}

	logger, _ := test.NewNullLogger()

	f.dispatcher = New(Deps{
		Source:     f.source,
		Records:    f.store,
		Summarizer: f.summarizer,
		Notifier:   f.notifier,
		Metrics:    f.metrics,
		Logger:     logger,
	})

	return f
}

func items(n int) []model.Item {
	result := make([]model.Item, 0, n)
	for i := 1; i <= n; i++ {
		result = append(result, model.Item{
			Title: fmt.Sprintf("Article %d", i),
			Link:  fmt.Sprintf("https://medium.com/p/%d", i),
		})
	}
	return result
}

func links(items []model.Item) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		result = append(result, item.Link)
	}
	return result
}

func TestRunEmptyFeed(t *testing.T) {
	f := newFixture(nil)

	outcome := f.dispatcher.Run(context.Background())

	assert.Equal(t, Outcome{Status: StatusNoArticles}, outcome)
	assert.Empty(t, f.store.lookups)
	assert.Empty(t, f.summarizer.prompts)
	assert.Empty(t, f.notifier.messages)
	assert.Empty(t, f.store.stored)
}

func TestRunAllCandidatesSeen(t *testing.T) {
	feed := items(7)
	f := newFixture(feed, links(feed[:5])...)

	outcome := f.dispatcher.Run(context.Background())

	assert.Equal(t, Outcome{Status: StatusNothingNew}, outcome)
	assert.Equal(t, links(feed[:5]), f.store.lookups, "only the first five entries are examined")
	assert.Empty(t, f.summarizer.prompts)
	assert.Empty(t, f.notifier.messages)
	assert.Empty(t, f.store.stored)
}

func TestRunSelectsFirstUnseen(t *testing.T) {
	for k := 1; k <= DefaultScanLimit; k++ {
		t.Run(fmt.Sprintf("entry %d", k), func(t *testing.T) {
			feed := items(6)
			f := newFixture(feed, links(feed[:k-1])...)

			outcome := f.dispatcher.Run(context.Background())

			assert.Equal(t, Outcome{Status: StatusProcessed}, outcome)
			assert.Equal(t, links(feed[:k]), f.store.lookups)

			chosen := feed[k-1]
			require.Len(t, f.summarizer.prompts, 1)
			assert.Contains(t, f.summarizer.prompts[0], "Artigo: "+chosen.Title)
			assert.Contains(t, f.summarizer.prompts[0], "Link: "+chosen.Link)

			require.Len(t, f.notifier.messages, 1)
			assert.Equal(t, FormatMessage(f.summarizer.text, chosen.Link), f.notifier.messages[0])

			require.Len(t, f.store.stored, 1)
			assert.Equal(t, model.Record{Title: chosen.Title, Link: chosen.Link}, f.store.stored[0])
		})
	}
}

func TestRunDeliveryFailureStillRecords(t *testing.T) {
	f := newFixture(items(3))
	f.notifier.err = errors.New("telegram error: 400 Bad Request")

	outcome := f.dispatcher.Run(context.Background())

	assert.Equal(t, Outcome{Status: StatusProcessed}, outcome)
	assert.Len(t, f.notifier.messages, 1)
	require.Len(t, f.store.stored, 1)
	assert.Equal(t, "https://medium.com/p/1", f.store.stored[0].Link)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.NotificationFailures))
}

func TestRunSummarizationFailure(t *testing.T) {
	f := newFixture(items(3))
	f.summarizer.err = errors.New("quota exceeded")

	outcome := f.dispatcher.Run(context.Background())

	assert.Equal(t, StatusError, outcome.Status)
	assert.Contains(t, outcome.Details, "quota exceeded")
	assert.Empty(t, f.notifier.messages)
	assert.Empty(t, f.store.stored)
}

func TestRunIsIdempotentAcrossRuns(t *testing.T) {
	f := newFixture(items(1))

	first := f.dispatcher.Run(context.Background())
	second := f.dispatcher.Run(context.Background())

	assert.Equal(t, StatusProcessed, first.Status)
	assert.Equal(t, StatusNothingNew, second.Status)
	assert.Len(t, f.notifier.messages, 1)
	assert.Len(t, f.store.stored, 1)
}

func TestRunRecordsArticleWhenCancelledDuringDelivery(t *testing.T) {
	f := newFixture(items(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.notifier.onNotify = cancel

	first := f.dispatcher.Run(ctx)
	f.notifier.onNotify = nil
	second := f.dispatcher.Run(context.Background())

	assert.Equal(t, StatusProcessed, first.Status)
	assert.Equal(t, StatusNothingNew, second.Status)
	assert.Len(t, f.notifier.messages, 1, "the article is sent once")
	require.Len(t, f.store.stored, 1)
	assert.Equal(t, "https://medium.com/p/1", f.store.stored[0].Link)
}

func TestRunFetchFailure(t *testing.T) {
	f := newFixture(nil)
	f.source.err = errors.New("dial tcp: no such host")

	outcome := f.dispatcher.Run(context.Background())

	assert.Equal(t, StatusError, outcome.Status)
	assert.Contains(t, outcome.Details, "no such host")
	assert.Empty(t, f.store.lookups)
}

func TestRunLookupFailure(t *testing.T) {
	f := newFixture(items(3))
	f.store.existsErr = errors.New("connection refused")

	outcome := f.dispatcher.Run(context.Background())

	assert.Equal(t, StatusError, outcome.Status)
	assert.Contains(t, outcome.Details, "connection refused")
	assert.Len(t, f.store.lookups, 1)
	assert.Empty(t, f.summarizer.prompts)
	assert.Empty(t, f.notifier.messages)
}

func TestRunInsertFailure(t *testing.T) {
	f := newFixture(items(3))
	f.store.storeErr = errors.New("disk full")

	outcome := f.dispatcher.Run(context.Background())

	assert.Equal(t, StatusError, outcome.Status)
	assert.Contains(t, outcome.Details, "disk full")
	assert.Len(t, f.notifier.messages, 1)
}

func TestRunUsesExcerptWhenAvailable(t *testing.T) {
	f := newFixture(items(1))
	f.dispatcher.excerpter = &fakeExcerpter{text: "Spark jobs that never finish."}

	f.dispatcher.Run(context.Background())

	require.Len(t, f.summarizer.prompts, 1)
	assert.Contains(t, f.summarizer.prompts[0], "Trecho: Spark jobs that never finish.")
}

func TestRunIgnoresExcerptFailure(t *testing.T) {
	f := newFixture(items(1))
	f.dispatcher.excerpter = &fakeExcerpter{err: errors.New("403 Forbidden")}

	outcome := f.dispatcher.Run(context.Background())

	assert.Equal(t, StatusProcessed, outcome.Status)
	require.Len(t, f.summarizer.prompts, 1)
	assert.NotContains(t, f.summarizer.prompts[0], "Trecho:")
}

func TestRunCountsOutcomes(t *testing.T) {
	f := newFixture(items(1))

	f.dispatcher.Run(context.Background())
	f.dispatcher.Run(context.Background())

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Runs.WithLabelValues(string(StatusProcessed))))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Runs.WithLabelValues(string(StatusNothingNew))))
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Why your DAG is sad", "https://medium.com/p/dag", "")

	assert.Equal(t,
		"Aja como um Engenheiro de Dados Senior e sarcástico.\n"+
			"Resuma para newsletter (PT-BR) em 2 frases.\n"+
			"Artigo: Why your DAG is sad\n"+
			"Link: https://medium.com/p/dag\n",
		prompt)
}

func TestFormatMessage(t *testing.T) {
	msg := FormatMessage("  Resumo.\n", "https://medium.com/p/a_(b)")

	assert.Equal(t, "🚨 *RADAR DADOS* 🚨\n\nResumo.\n\n🔗 [Ler Original](https://medium.com/p/a_%28b%29)", msg)
}

func TestOutcomeJSON(t *testing.T) {
	raw, err := json.Marshal(Outcome{Status: StatusProcessed})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Processado com sucesso"}`, string(raw))

	raw, err = json.Marshal(failure(errors.New("boom")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Erro","detalhes":"boom"}`, string(raw))
}
