// =============================================================================
// run.go - パイプラインオーケストレーター
// =============================================================================
//
// このファイルは1回の実行の全工程をつなぎます。
//
// 【実行の流れ】
//
//   ┌──────────┐   ┌──────────┐   ┌──────────┐   ┌──────────┐
//   │ カーソル │→ │   収集   │→ │   選抜   │→ │  仕上げ  │
//   │   読込   │   │ RSS+Alert│   │  + 公開  │   │索引+保存 │
//   └──────────┘   └──────────┘   └──────────┘   └──────────┘
//
//   1. カーソル読込: 前回実行時刻をファイルから復元
//   2. 収集: RSSフィードとGoogle Alertsから記事を収集・正規化・スコアリング
//   3. 選抜+公開: 鮮度フィルタ → 2段階クォータ選抜 → ゲート → Notion保存
//      各公開ごとにテーマ分類・タグ抽出・PDF収集を行う
//   4. 仕上げ: PDFインデックス生成、カーソル保存、サマリー出力
//
// 公開は1件ずつ順次行い、書き込みの間に待機を挟む（Notionのレート制限対策）。
// デバッグモード（DEBUG_FETCH=true）では取得期間を60日に拡大し、
// カーソルを保存しない（同じ記事で繰り返しテストできるようにするため）。
//
// =============================================================================
package pipeline

import (
	"context"
	"strings"
	"time"
)

// debugLookback はデバッグモード時の取得期間
const debugLookback = 60 * 24 * time.Hour

// Pipeline は1回の実行に必要な依存をまとめる
type Pipeline struct {
	cfg     *Config
	store   Store
	mailbox AlertMailbox
	pdf     *PDFHarvester

	// now と sleep はテストで差し替えられる
	now   func() time.Time
	sleep func(time.Duration)
}

// New はパイプラインを作成する
//
// mailboxはnilでもよい（アラート収集がスキップされる）。
func New(cfg *Config, store Store, mailbox AlertMailbox) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		store:   store,
		mailbox: mailbox,
		pdf:     NewPDFHarvester(cfg.PDFDir, cfg.Source),
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// Run は収集から公開までの1サイクルを実行する
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	now := p.now()

	// 1. カーソル読込
	lastRun := LoadLastRun(p.cfg.CursorPath, p.now)
	if p.cfg.Debug {
		lastRun = now.Add(-debugLookback)
		infof("DEBUG MODE: overriding last run time to %s", lastRun.Format(time.RFC3339))
	}
	infof("last run: %s", lastRun.Format(time.RFC3339))

	// 2. 収集
	stats := &RunStats{}

	rssResult := CollectFeeds(ctx, p.cfg.Feeds, lastRun, p.cfg.Source, p.now)
	stats.FetchedRSS = len(rssResult.Articles)
	stats.SourceErrors = append(stats.SourceErrors, rssResult.Errors...)

	alertResult := CollectAlerts(ctx, p.mailbox, lastRun, p.now)
	stats.FetchedAlerts = len(alertResult.Articles)
	stats.SourceErrors = append(stats.SourceErrors, alertResult.Errors...)

	articles := uniqueArticlesByLink(append(rssResult.Articles, alertResult.Articles...))
	infof("collected %d articles (RSS: %d, Alerts: %d)",
		len(articles), stats.FetchedRSS, stats.FetchedAlerts)

	// 3. 選抜+公開
	p.ProcessArticles(ctx, articles, lastRun, stats)

	// 4. 仕上げ
	if len(stats.Added) > 0 && p.pdf != nil {
		if indexPath, err := p.pdf.WriteIndex(stats.Added, now); err != nil {
			warnf("failed to write PDF index: %v", err)
		} else {
			infof("PDF index written to %s", indexPath)
		}
	}

	if p.cfg.Debug {
		infof("DEBUG MODE: skipping cursor save")
	} else if err := SaveLastRun(p.cfg.CursorPath, now); err != nil {
		warnf("failed to save last run time: %v", err)
	}

	infof("run complete: published %d/%d articles (duplicates: %d, stale: %d, errors: %d)",
		stats.Published(), stats.Fetched(), stats.Duplicates, stats.Stale, stats.PublishErrors)

	return stats, nil
}

// ProcessArticles は収集済みの記事群に対して鮮度フィルタ・選抜・公開を行う
//
// Runから切り出されているのは、HTTP収集なしで選抜から先を
// そのまま動かせるようにするため。
func (p *Pipeline) ProcessArticles(ctx context.Context, articles []Article, lastRunAt time.Time, stats *RunStats) {
	filtered := FilterStale(articles, lastRunAt)
	stats.Stale += len(articles) - len(filtered)

	gate := NewGate(p.store)

	admit := func(a Article) bool {
		verdict, err := gate.Admit(ctx, a, lastRunAt)
		if err != nil {
			warnf("gate check failed for %s: %v", a.Link, err)
			stats.PublishErrors++
			return false
		}
		switch verdict {
		case RejectedNoLink:
			warnf("skipping article without link: %s", a.Title)
			return false
		case RejectedStale:
			infof("skipping old article: %s", a.Title)
			stats.Stale++
			return false
		case RejectedDuplicate:
			infof("skipping duplicate: %s", a.Title)
			stats.Duplicates++
			return false
		}

		added, err := p.publish(ctx, a)
		if err != nil {
			errorf("failed to publish %s: %v", a.Title, err)
			stats.PublishErrors++
			return false
		}

		stats.Added = append(stats.Added, added)
		if a.SourceType == SourceTypeGoogleAlert {
			stats.PublishedAlerts++
		} else {
			stats.PublishedRSS++
		}
		return true
	}

	SelectTop(filtered, p.now(), p.cfg.Selection, admit)
}

// publish は1記事をNotionに保存する
//
// テーマ分類・タグ抽出・PDF収集をここで行う。PDF関連の失敗は
// 公開自体を止めない（警告のみ）。
func (p *Pipeline) publish(ctx context.Context, a Article) (AddedArticle, error) {
	now := p.now()

	rec := PublicationRecord{
		Article:   a,
		FetchedAt: now,
	}

	content := a.Title + " " + a.Summary
	rec.Themes = ClassifyThemes(content)
	rec.Tags = ExtractTags(content)

	if a.HasPublishedAt() {
		rec.AgeDays = int(now.Sub(a.PublishedAt).Hours() / 24)
	}

	p.harvestPDF(ctx, &rec)

	pageURL, err := p.store.Create(ctx, rec)
	if err != nil {
		return AddedArticle{}, err
	}

	infof("added: %s | Source: %s | Type: %s | Theme: %s | Relevancy: %.2f | Age: %d days",
		rec.Title, rec.Source, rec.SourceType, capitalize(rec.Themes[0]), rec.Relevancy, rec.AgeDays)

	// Notionのレート制限対策
	p.sleep(p.cfg.PublishDelay)

	return AddedArticle{
		Title:       rec.Title,
		Link:        rec.Link,
		Source:      rec.Source,
		PublishedAt: rec.PublishedAt,
		PDFPath:     rec.PDFPath,
		PageURL:     pageURL,
	}, nil
}

// harvestPDF は記事に紐づくPDFを探してダウンロードし、テキストを抽出する
//
// 抽出テキストの関連度が記事本体より高い場合、両者の平均を新しい
// スコアとして採用する（本文の方が要約より情報量が多いため）。
func (p *Pipeline) harvestPDF(ctx context.Context, rec *PublicationRecord) {
	if p.pdf == nil {
		return
	}

	// 記事URL自体がPDFの場合はページ取得をスキップ
	if strings.HasSuffix(strings.ToLower(rec.Link), ".pdf") {
		rec.PDFLink = rec.Link
	} else {
		link, err := p.pdf.FindPDFLink(ctx, rec.Link)
		if err != nil {
			warnf("could not fetch PDF link for %s: %v", rec.Link, err)
			return
		}
		rec.PDFLink = link
	}

	if rec.PDFLink == "" {
		return
	}

	path, err := p.pdf.Download(ctx, rec.PDFLink, rec.Title, p.now())
	if err != nil {
		warnf("PDF download failed for %s: %v", rec.PDFLink, err)
		return
	}
	rec.PDFPath = path

	text, err := ExtractPDFText(path)
	if err != nil {
		warnf("PDF text extraction failed for %s: %v", path, err)
		return
	}
	if text == "" {
		return
	}
	rec.PDFInsights = text
	infof("extracted %d characters of text from PDF", len(text))

	pdfRelevancy := CalculateRelevancy(rec.Title, text, rec.SourceType, rec.Source)
	if pdfRelevancy > rec.Relevancy {
		rec.Relevancy = clamp01((rec.Relevancy + pdfRelevancy) / 2)
		infof("enhanced relevancy score to %.2f based on PDF content", rec.Relevancy)
	}
}
