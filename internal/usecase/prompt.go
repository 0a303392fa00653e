package usecase

import (
	"fmt"
	"strings"
	"time"

	"NewsPoster/internal/domain"
)

const (
	defaultTitle    = "ミャンマー情勢の最近の動き（自動投稿）"
	maxPromptSource = 4000
)

// jst is the timezone stamped into prompts; the blog's readership is Japanese.
var jst = time.FixedZone("JST", 9*60*60)

const promptHeader = `あなたはミャンマー情勢を専門とする日本語ニュースブロガーです。
以下の条件で、ブログ記事を1本だけ執筆してください。
`

const promptConstraints = `
# 内容の制約（重要）
- 参照記事に書かれていない「日付」「人数」「金額」「地名」「個人名」「組織名」などの
  新しい固有名詞や数値情報は作らないでください。
- 読者が誤解しそうな、細かい事実（いつ・どこで・誰が・何人）といった情報は
  参照記事の範囲を超えて書かないでください。
- あくまで「大まかな傾向」や「構造的な課題」「今後の注目ポイント」にフォーカスしてください。

# 記事構成
- 冒頭に短いリード文（2〜4文程度）を書いてください。
- そのあとに「### 見出し」を3〜4個付けて、セクションごとに整理してください。
- 各セクションでは、背景 → 現状の課題 → 住民・周辺国・国際社会への影響、
  といった流れで、筋の通った説明を心がけてください。
- 記事の最後に「今後のミャンマーウォッチのポイント」を、
  箇条書きか短い段落で2〜3個まとめてください。

# 文体
- です・ます調。
- 専門家ではない読者にも伝わるように、難しい用語には必ず一言で説明を添えてください。
- 不必要に煽らず、しかし「遠い国の話ではない」という距離感を大事にしてください。
`

const promptFooter = `
# 出力フォーマット
- Markdown で出力してください。
- 一番最初の行は「# タイトル」の形式で、記事全体のタイトルを書いてください。
- それ以外に余計な説明やコメントは入れず、ブログ本文だけを出力してください。
`

// BuildPrompt assembles the generation prompt for one candidate. Rich entries
// get a summarize-the-source brief; sparse ones get a background-commentary
// brief that forbids inventing specifics the source never provided.
func BuildPrompt(entry domain.Entry, body string, now time.Time) string {
	var b strings.Builder
	b.WriteString(promptHeader)

	enriched := entry
	enriched.Body = body

	switch domain.ClassifyRichness(enriched) {
	case domain.RichnessRich:
		b.WriteString("\n# テーマ\n")
		b.WriteString("- 以下の参照記事の内容を、日本の一般読者向けにわかりやすく解説する記事。\n")
		b.WriteString("- 参照記事の要点を押さえつつ、背景や文脈を補って紹介してください。\n")
		b.WriteString("\n# 参照記事\n")
		fmt.Fprintf(&b, "- 見出し: %s\n", strings.TrimSpace(entry.Title))
		fmt.Fprintf(&b, "- 本文:\n%s\n", truncateRunes(body, maxPromptSource))
	case domain.RichnessSparse:
		b.WriteString("\n# テーマ\n")
		b.WriteString("- ミャンマーの最近の情勢を、日本の一般読者向けにわかりやすく解説する記事。\n")
		fmt.Fprintf(&b, "- 「%s」などで継続的に報じられている話題を、\n  日本語でまとめて紹介するイメージです。\n", entry.Source)
		if title := strings.TrimSpace(entry.Title); title != "" {
			fmt.Fprintf(&b, "- きっかけとなった見出し: %s\n", title)
		}
	}

	b.WriteString(promptConstraints)
	b.WriteString("\n# メタ情報\n")
	fmt.Fprintf(&b, "- 執筆日時（日本時間）: %s\n", now.In(jst).Format("2006-01-02 15:04:05 (JST)"))
	b.WriteString(promptFooter)

	return strings.TrimSpace(b.String())
}

// SplitTitleBody separates the generated Markdown into the first heading and
// the remaining body. A missing heading falls back to the default title.
func SplitTitleBody(markdown string) (string, string) {
	lines := strings.Split(markdown, "\n")

	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			title := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
			if title == "" {
				title = defaultTitle
			}
			body := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			return title, body
		}
	}

	return defaultTitle, strings.TrimSpace(markdown)
}

// SourceAttribution is prepended to every published body so readers can find
// the original reporting.
func SourceAttribution(entry domain.Entry) string {
	var b strings.Builder
	b.WriteString("参照元  \n")
	fmt.Fprintf(&b, "%s  \n", entry.Source)
	if link := strings.TrimSpace(entry.Link); link != "" {
		b.WriteString(link)
		b.WriteString("\n")
	}
	b.WriteString("\n---")
	return b.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
