package hatena

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsPoster/internal/config"
	"NewsPoster/internal/ports"
)

const maxResponseSnippet = 300

// successCodes is the closed set of statuses meaning the entry is live.
var successCodes = map[int]struct{}{
	http.StatusOK:      {},
	http.StatusCreated: {},
}

// Publisher posts entries to a Hatena Blog AtomPub endpoint.
type Publisher struct {
	hatenaID string
	apiKey   string
	blogID   string
	category string
	draft    bool
	baseURL  string
	client   *http.Client
	now      func() time.Time
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher wires account credentials and the destination blog.
func NewPublisher(cfg config.HatenaConfig) *Publisher {
	return &Publisher{
		hatenaID: cfg.HatenaID,
		apiKey:   cfg.APIKey,
		blogID:   cfg.BlogID,
		category: cfg.Category,
		draft:    cfg.Draft,
		baseURL:  "https://blog.hatena.ne.jp",
		client:   &http.Client{Timeout: 30 * time.Second},
		now:      time.Now,
	}
}

// Publish posts one Markdown entry. The body is wrapped in the blog's
// [markdown] marker so the backend renders it instead of treating it as HTML.
func (p *Publisher) Publish(ctx context.Context, title, bodyMarkdown string) error {
	if p.hatenaID == "" || p.apiKey == "" || p.blogID == "" {
		return fmt.Errorf("hatena publisher misconfigured")
	}

	payload := p.entryXML(title, bodyMarkdown)

	endpoint := fmt.Sprintf("%s/%s/%s/atom/entry", p.baseURL, p.hatenaID, p.blogID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	req.SetBasicAuth(p.hatenaID, p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post entry: %w", err)
	}
	defer resp.Body.Close()

	if _, ok := successCodes[resp.StatusCode]; !ok {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSnippet))
		return fmt.Errorf("hatena returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	return nil
}

// entryXML assembles the AtomPub entry document. encoding/xml cannot emit the
// app: namespace prefix Hatena expects, so the document is written literally
// with escaped interpolations.
func (p *Publisher) entryXML(title, bodyMarkdown string) string {
	draft := "no"
	if p.draft {
		draft = "yes"
	}

	body := "[markdown]\n" + strings.TrimSpace(bodyMarkdown) + "\n[/markdown]"
	updated := p.now().UTC().Format("2006-01-02T15:04:05Z")

	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<entry xmlns=\"http://www.w3.org/2005/Atom\"\n")
	b.WriteString("       xmlns:app=\"http://www.w3.org/2007/app\">\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", escapeXML(title))
	fmt.Fprintf(&b, "  <updated>%s</updated>\n", updated)
	fmt.Fprintf(&b, "  <author><name>%s</name></author>\n", escapeXML(p.hatenaID))
	fmt.Fprintf(&b, "  <content type=\"text/x-markdown\">%s</content>\n", escapeXML(body))
	if p.category != "" {
		fmt.Fprintf(&b, "  <category term=\"%s\" />\n", escapeXML(p.category))
	}
	fmt.Fprintf(&b, "  <app:control><app:draft>%s</app:draft></app:control>\n", draft)
	b.WriteString("</entry>\n")
	return b.String()
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
