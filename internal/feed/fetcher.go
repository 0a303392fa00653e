package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"

	"NewsPoster/internal/config"
	"NewsPoster/internal/domain"
	"NewsPoster/internal/ports"
)

const maxFeedBytes = 10 << 20

var encodingDeclExpr = regexp.MustCompile(`encoding=["'][^"']*["']`)

// Fetcher retrieves configured feeds and yields candidate entries.
// A failing source contributes zero entries; it never aborts the others.
type Fetcher struct {
	client  *http.Client
	sources []config.SourceConfig
	logger  *slog.Logger
}

var _ ports.FeedSource = (*Fetcher)(nil)

// NewFetcher wires an HTTP client with the declared source list.
func NewFetcher(client *http.Client, sources []config.SourceConfig, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{client: client, sources: sources, logger: log}
}

// FetchAll drains sources in declared order, preserving feed order within
// each source. There is no cross-source interleaving or global re-sort:
// declared order decides which entries are attempted first on capped runs.
func (f *Fetcher) FetchAll(ctx context.Context) ([]domain.Entry, error) {
	var entries []domain.Entry
	for _, src := range f.sources {
		sourceEntries, err := f.fetchSource(ctx, src)
		if err != nil {
			f.logger.Warn("source fetch failed, skipping",
				"source", src.Name, "url", src.URL, "error", err)
			continue
		}
		f.logger.Debug("source fetched", "source", src.Name, "entries", len(sourceEntries))
		entries = append(entries, sourceEntries...)
	}
	return entries, nil
}

func (f *Fetcher) fetchSource(ctx context.Context, src config.SourceConfig) ([]domain.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsPoster/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	parsed, err := parseFeed(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]domain.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entries = append(entries, toEntry(item, src.Name))
	}
	return entries, nil
}

// parseFeed first honors the declared character encoding, coming either from
// the Content-Type header or from the XML declaration. Feeds that lie about
// their encoding are a recurring failure mode, so on a parse error the raw
// payload is coerced to UTF-8 and parsed once more instead of giving up.
func parseFeed(raw []byte, contentType string) (*gofeed.Feed, error) {
	parser := gofeed.NewParser()

	if strings.Contains(strings.ToLower(contentType), "charset=") {
		// The header charset takes over: decode through it and neutralize
		// the in-document declaration so the payload is not decoded twice.
		if reader, err := charset.NewReader(bytes.NewReader(raw), contentType); err == nil {
			if decoded, readErr := io.ReadAll(reader); readErr == nil {
				document := encodingDeclExpr.ReplaceAllString(string(decoded), `encoding="utf-8"`)
				if parsed, parseErr := parser.ParseString(document); parseErr == nil {
					return parsed, nil
				}
			}
		}
	} else if parsed, err := parser.Parse(bytes.NewReader(raw)); err == nil {
		// No header charset: gofeed resolves the XML declaration itself.
		return parsed, nil
	}

	coerced := strings.ToValidUTF8(string(raw), "")
	coerced = encodingDeclExpr.ReplaceAllString(coerced, `encoding="utf-8"`)
	parsed, err := parser.ParseString(coerced)
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

func toEntry(item *gofeed.Item, sourceName string) domain.Entry {
	body := item.Content
	if strings.TrimSpace(body) == "" {
		body = item.Description
	}

	publishedAt := time.Time{}
	if item.PublishedParsed != nil {
		publishedAt = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		publishedAt = item.UpdatedParsed.UTC()
	}

	return domain.Entry{
		GUID:        strings.TrimSpace(item.GUID),
		Source:      sourceName,
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Body:        htmlToText(body),
		PublishedAt: publishedAt,
	}
}

// htmlToText strips markup from feed-provided bodies. Plain-text bodies pass
// through unchanged apart from whitespace normalization.
func htmlToText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return normalizeSpace(raw)
	}
	doc.Find("script, style").Remove()
	return normalizeSpace(doc.Text())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
