package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SlyMarbo/rss"
	"github.com/samber/lo"

	"radar/internal/model"
)

const maxFeedSize = 10 << 20

type RSSSource struct {
	URL      string
	client   *http.Client
	keywords []string
}

func NewRSSSource(url string, client *http.Client, keywords []string) RSSSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return RSSSource{
		URL:      url,
		client:   client,
		keywords: keywords,
	}
}

// Fetch returns the feed entries in feed order. Entries without a title or
// a link, and entries matching an excluded keyword, are dropped.
func (s RSSSource) Fetch(ctx context.Context) ([]model.Item, error) {
	feed, err := s.loadFeed(ctx, s.URL)

	if err != nil {
		return nil, err
	}

	items := lo.Map(feed.Items, func(item *rss.Item, _ int) model.Item {
		return model.Item{
			Title:      strings.TrimSpace(item.Title),
			Categories: item.Categories,
			Link:       strings.TrimSpace(item.Link),
			Date:       item.Date.UTC(),
			Summary:    item.Summary,
		}
	})

	return lo.Filter(items, func(item model.Item, _ int) bool {
		return item.Title != "" && item.Link != "" && !s.IsSkipped(item)
	}), nil
}

// IsSkipped reports whether the title contains one of the keywords or a
// category equals one.
func (s RSSSource) IsSkipped(item model.Item) bool {
	title := strings.ToLower(item.Title)

	for _, keyword := range s.keywords {
		if strings.Contains(title, keyword) {
			return true
		}

		for _, category := range item.Categories {
			if strings.EqualFold(category, keyword) {
				return true
			}
		}
	}

	return false
}

func (s RSSSource) loadFeed(ctx context.Context, url string) (*rss.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new feed request: %w", err)
	}
	req.Header.Set("User-Agent", "radar/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch feed: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	feed, err := rss.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	return feed, nil
}
