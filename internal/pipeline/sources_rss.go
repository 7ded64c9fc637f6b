// =============================================================================
// sources_rss.go - RSSフィードソース
// =============================================================================
//
// このファイルはRSS/Atomフィードからの記事収集を実装します。
// gofeed ライブラリを使用してフィードを解析します。
//
// 収集対象のフィードは設定（フィード名 → URL のマップ）で与えられ、
// Nature, Science, MIT Tech Review などのバイオテック系メディアが
// デフォルトに含まれます（config.go参照）。
//
// 【収集の流れ】
//   1. フィード名をソートして順に取得（実行ごとの順序を決定的にするため）
//   2. 各フィードをHTTP GET + gofeedでパース
//   3. エントリを共通のArticle形式に正規化
//      - タイトル・リンクのないエントリはスキップ
//      - 公開日時: published > updated > 不明（ゼロ値）
//      - 要約: content:encoded > description（HTMLタグ除去済み）
//   4. 前回実行時刻以前のエントリはこの時点で除外（一次フィルタ）
//   5. 関連度スコアを算出して付与
//
// 1つのフィードの失敗は実行全体を止めず、CollectResult.Errorsに
// 記録して次のフィードへ進みます。
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// SourceConfig はフィード取得のHTTP設定
type SourceConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// DefaultSourceConfig はデフォルトのHTTP設定を返す
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		Timeout:   20 * time.Second,
	}
}

// CollectResult は収集結果とエラー情報を保持する
type CollectResult struct {
	Articles []Article
	Errors   []string
}

// CollectFeeds は全フィードから記事を収集する
//
// フィード名のソート順に1つずつ取得する。フィード単位の失敗は
// Errorsに記録して続行し、エラーは戻り値としては返さない。
func CollectFeeds(ctx context.Context, feeds map[string]string, lastRunAt time.Time, cfg SourceConfig, now func() time.Time) *CollectResult {
	result := &CollectResult{}

	names := make([]string, 0, len(feeds))
	for name := range feeds {
		names = append(names, name)
	}

	for _, name := range sortStrings(names) {
		articles, err := collectFeed(ctx, name, feeds[name], lastRunAt, cfg)
		if err != nil {
			errMsg := fmt.Sprintf("[ERROR] collecting %s: %v", name, err)
			warnf("%s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		infof("collected %d articles from %s", len(articles), name)
		result.Articles = append(result.Articles, articles...)
	}

	result.Articles = uniqueArticlesByLink(result.Articles)
	return result
}

// collectFeed は1つのフィードを取得・正規化する
func collectFeed(ctx context.Context, name, feedURL string, lastRunAt time.Time, cfg SourceConfig) ([]Article, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	req, err := http.NewRequestWithContext(ctx, "GET", feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	// フィードをパース（RSS/Atom両対応）
	fp := gofeed.NewParser()
	feed, err := fp.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed parse failed: %w", err)
	}

	var out []Article

	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" || item.Link == "" {
			continue
		}

		// 公開日時のパース: published > updated > 不明
		var publishedAt time.Time
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		// 前回実行時刻以前の記事はスキップ（一次フィルタ）
		// 公開日時が不明な記事は常に通す
		if !publishedAt.IsZero() && !publishedAt.After(lastRunAt) {
			continue
		}

		// 要約を取得（content:encoded から、なければ description から）
		summary := ""
		if item.Content != "" {
			summary = cleanHTMLTags(item.Content)
		} else if item.Description != "" {
			summary = cleanHTMLTags(item.Description)
		}

		a := Article{
			Title:       title,
			Link:        item.Link,
			Summary:     summary,
			Source:      name,
			SourceType:  SourceTypeRSS,
			PublishedAt: publishedAt,
		}
		a.Relevancy = CalculateRelevancy(a.Title, a.Summary, a.SourceType, a.Source)

		out = append(out, a)
	}

	return out, nil
}
