package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const maxPageSize = 5 << 20

// Readability downloads an article page and keeps its readable text.
type Readability struct {
	client *http.Client
	limit  int
}

func NewReadability(client *http.Client, limit int) *Readability {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	return &Readability{client: client, limit: limit}
}

// Excerpt returns at most limit runes of the article text, whitespace collapsed.
func (r *Readability) Excerpt(ctx context.Context, link string) (string, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse link: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download article: unexpected status %s", resp.Status)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageSize), pageURL)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	return truncate(strings.Join(strings.Fields(article.TextContent), " "), r.limit), nil
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}
