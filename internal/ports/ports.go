package ports

import (
	"context"
	"time"

	"NewsPoster/internal/domain"
)

// FeedSource pulls candidate entries from all configured feeds.
type FeedSource interface {
	FetchAll(ctx context.Context) ([]domain.Entry, error)
}

// SeenStore persists identifiers of articles already delivered.
type SeenStore interface {
	Load() (map[string]struct{}, error)
	Save(ids map[string]struct{}) error
}

// Generator produces article text from a free-text prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Publisher pushes a finished post to the blog backend.
type Publisher interface {
	Publish(ctx context.Context, title, bodyMarkdown string) error
}

// ContentExtractor fetches an article page and extracts readable text.
type ContentExtractor interface {
	Extract(ctx context.Context, pageURL string) (string, error)
}

// Scheduler controls when pipeline passes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
