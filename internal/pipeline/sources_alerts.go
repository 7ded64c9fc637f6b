// =============================================================================
// sources_alerts.go - Google Alertsメールソース
// =============================================================================
//
// このファイルはGoogle AlertsのダイジェストメールのHTML本文から記事を
// 抽出します。goquery ライブラリを使用してリンクを走査します。
//
// メールの取得自体（IMAP等）はこのパッケージの責務ではなく、
// AlertMailbox インターフェースの実装に委ねます。付属のFileMailboxは
// エクスポート済みメッセージのJSONファイルを読むだけの実装です。
//
// 【抽出ルール】
//   - 件名 "Google Alert - <トピック>" からトピックを取り出し、
//     収集元名を "Google Alerts: <トピック>" とする（形式外なら "Google Alerts"）
//   - 本文中の <a href> を走査し、以下を除外:
//       * google.com/alerts / support.google.com へのリンク（Google自身のリンク）
//       * アンカーテキストが空のリンク
//       * http(s) 以外のURL
//   - 要約 = リンクの親要素のテキストからタイトルを除いたもの（最大2000文字）
//   - 記事の公開日時はメールの受信日時で代用する
//   - 前回実行時刻以前のメールはスキップ
//
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// AlertMessage は取得済みのアラートメール1通分
type AlertMessage struct {
	Subject  string    `json:"subject"`
	Date     time.Time `json:"date"`
	HTMLBody string    `json:"htmlBody"`
}

// AlertMailbox はアラートメールの取得元
//
// 本番ではメールボックスのエクスポートを読むFileMailboxを使い、
// テストではメモリ上のフェイクを使う。
type AlertMailbox interface {
	// FetchSince は指定時刻より後に届いたメッセージを返す
	FetchSince(ctx context.Context, since time.Time) ([]AlertMessage, error)
}

// FileMailbox はJSONファイルからアラートメールを読み込むAlertMailbox実装
type FileMailbox struct {
	Path string
}

// FetchSince はファイル内のメッセージのうちsinceより新しいものを返す
func (fm *FileMailbox) FetchSince(ctx context.Context, since time.Time) ([]AlertMessage, error) {
	var msgs []AlertMessage
	if err := readJSONFile(fm.Path, &msgs); err != nil {
		return nil, fmt.Errorf("failed to read alert messages from %s: %w", fm.Path, err)
	}

	out := make([]AlertMessage, 0, len(msgs))
	for _, m := range msgs {
		if !m.Date.After(since) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// alertSubjectPrefix は件名からトピックを取り出すための区切り
const alertSubjectPrefix = "Google Alert - "

// alertTopic は件名から収集元名を組み立てる
func alertTopic(subject string) string {
	if idx := strings.Index(subject, alertSubjectPrefix); idx >= 0 {
		topic := strings.TrimSpace(subject[idx+len(alertSubjectPrefix):])
		if topic != "" {
			return "Google Alerts: " + topic
		}
	}
	return "Google Alerts"
}

// CollectAlerts はメールボックスからアラート記事を収集する
//
// メールボックスの取得失敗は実行全体を止めず、Errorsに記録して
// 空の結果を返す（RSS側の収集は継続できる）。
func CollectAlerts(ctx context.Context, mailbox AlertMailbox, lastRunAt time.Time, now func() time.Time) *CollectResult {
	result := &CollectResult{}
	if mailbox == nil {
		return result
	}

	msgs, err := mailbox.FetchSince(ctx, lastRunAt)
	if err != nil {
		errMsg := fmt.Sprintf("[ERROR] fetching alert messages: %v", err)
		warnf("%s", errMsg)
		result.Errors = append(result.Errors, errMsg)
		return result
	}

	for _, msg := range msgs {
		if !msg.Date.After(lastRunAt) {
			continue
		}

		articles, err := ParseAlertMessage(msg)
		if err != nil {
			errMsg := fmt.Sprintf("[ERROR] parsing alert %q: %v", msg.Subject, err)
			warnf("%s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		infof("found %d articles in alert %q", len(articles), msg.Subject)
		result.Articles = append(result.Articles, articles...)
	}

	result.Articles = uniqueArticlesByLink(result.Articles)
	return result
}

// ParseAlertMessage は1通のアラートメールから記事を抽出する
func ParseAlertMessage(msg AlertMessage) ([]Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(msg.HTMLBody))
	if err != nil {
		return nil, fmt.Errorf("HTML parse failed: %w", err)
	}

	source := alertTopic(msg.Subject)

	var out []Article
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		link := strings.TrimSpace(s.AttrOr("href", ""))

		// Google自身のリンク（アラート管理・ヘルプ）を除外
		if strings.Contains(link, "google.com/alerts") || strings.Contains(link, "support.google.com") {
			return
		}
		if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
			return
		}

		title := strings.TrimSpace(s.Text())
		if title == "" {
			return
		}

		// 要約 = 親要素のテキストからタイトルを除いたもの
		summary := ""
		if parent := s.Parent(); parent.Length() > 0 {
			summary = strings.TrimSpace(parent.Text())
			summary = strings.TrimSpace(strings.Replace(summary, title, "", 1))
		}
		if len(summary) > 2000 {
			summary = summary[:2000]
		}

		a := Article{
			Title:       title,
			Link:        link,
			Summary:     summary,
			Source:      source,
			SourceType:  SourceTypeGoogleAlert,
			PublishedAt: msg.Date,
		}
		a.Relevancy = CalculateRelevancy(a.Title, a.Summary, a.SourceType, a.Source)

		out = append(out, a)
	})

	return out, nil
}
