// =============================================================================
// types.go - データ構造定義
// =============================================================================
//
// このファイルはBiotech Relayシステム全体で使用するデータ構造（型）を定義します。
//
// 【このファイルで定義している型】
//   - SourceType:        記事の収集元種別（RSS / Google Alerts）
//   - Article:           正規化済みの記事
//   - PublicationRecord: Notionに保存する1レコード分のデータ
//   - AddedArticle:      保存に成功した記事の情報（PDFインデックス用）
//   - RunStats:          1回の実行の統計情報
//
// 【初心者向けポイント】
//   - Go言語では`type 型名 struct { ... }`で構造体（複数のデータをまとめた型）を定義
//   - `json:"フィールド名"`はJSONに変換する際のキー名を指定するタグ
//   - `omitempty`は値が空の場合、JSONに出力しないことを意味
//
// =============================================================================
package pipeline

import "time"

// -----------------------------------------------------------------------------
// SourceType - 記事の収集元種別
// -----------------------------------------------------------------------------
//
// RSSフィード経由かGoogle Alertsメール経由かを区別します。
// Google Alerts由来の記事はアラート条件で事前フィルタ済みのため、
// relevancy.goでスコアにブーストが加算されます。
type SourceType string

const (
	SourceTypeRSS         SourceType = "RSS Feed"
	SourceTypeGoogleAlert SourceType = "Google Alerts"
)

// -----------------------------------------------------------------------------
// Article - 正規化済みの記事
// -----------------------------------------------------------------------------
//
// フィードエントリやアラートメール内のリンクを共通形式に変換したものです。
// Linkがシステム全体での一意キーになります（同じLink = 同じ記事）。
//
// 【フィールドの説明】
//   Title:       記事タイトル
//   Link:        記事URL（必須。空の記事は正規化時に破棄される）
//   Summary:     要約テキスト（空の場合あり。保存時は2000文字に切り詰め）
//   Source:      収集元名（フィード名、または "Google Alerts: <トピック>"）
//   SourceType:  収集元種別
//   PublishedAt: 公開日時（ゼロ値 = 不明。鮮度判定ではスキップ扱い）
//   Relevancy:   関連度スコア（0.0〜1.0。relevancy.goで算出）
//
type Article struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Summary     string     `json:"summary,omitempty"`
	Source      string     `json:"source"`
	SourceType  SourceType `json:"sourceType"`
	PublishedAt time.Time  `json:"publishedAt,omitempty"`
	Relevancy   float64    `json:"relevancy"`
}

// HasPublishedAt は公開日時が判明しているかどうかを返す
func (a Article) HasPublishedAt() bool {
	return !a.PublishedAt.IsZero()
}

// -----------------------------------------------------------------------------
// PublicationRecord - Notionに保存する1レコード
// -----------------------------------------------------------------------------
//
// ゲート（gate.go）を通過した記事に、公開時に計算するメタデータを
// 付与したものです。notion.goがこの構造体からNotionページを組み立てます。
//
// 【フィールドの説明】
//   Themes:      テーマ分類（themes.go。必ず1件以上、先頭がプライマリテーマ）
//   Tags:        タグ（themes.go。最大5件）
//   AgeDays:     記事の経過日数（公開日時不明の場合は0）
//   FetchedAt:   取得日時
//   PDFLink:     発見したPDFのURL（任意）
//   PDFPath:     ダウンロードしたPDFのローカルパス（任意）
//   PDFInsights: PDFから抽出したテキスト（先頭3ページ、最大1000文字、任意）
//
type PublicationRecord struct {
	Article
	Themes      []string  `json:"themes"`
	Tags        []string  `json:"tags,omitempty"`
	AgeDays     int       `json:"ageDays"`
	FetchedAt   time.Time `json:"fetchedAt"`
	PDFLink     string    `json:"pdfLink,omitempty"`
	PDFPath     string    `json:"pdfPath,omitempty"`
	PDFInsights string    `json:"pdfInsights,omitempty"`
}

// -----------------------------------------------------------------------------
// AddedArticle - 保存に成功した記事の情報
// -----------------------------------------------------------------------------
//
// pdf.goのPDFインデックス生成と実行サマリーで使用されます。
// PageURLはNotionが返したページURLです。
type AddedArticle struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt,omitempty"`
	PDFPath     string    `json:"pdfPath,omitempty"`
	PageURL     string    `json:"pageUrl,omitempty"`
}

// -----------------------------------------------------------------------------
// RunStats - 1回の実行の統計情報
// -----------------------------------------------------------------------------
//
// run.goが収集・公開の各段階でカウントし、最後にサマリーとして出力します。
// Lambdaのレスポンスとエラー通知メールにも使用されます。
type RunStats struct {
	FetchedRSS      int            `json:"fetchedRss"`
	FetchedAlerts   int            `json:"fetchedAlerts"`
	PublishedRSS    int            `json:"publishedRss"`
	PublishedAlerts int            `json:"publishedAlerts"`
	Duplicates      int            `json:"duplicates"`
	Stale           int            `json:"stale"`
	PublishErrors   int            `json:"publishErrors"`
	SourceErrors    []string       `json:"sourceErrors,omitempty"`
	Added           []AddedArticle `json:"added,omitempty"`
}

// Fetched は収集した記事の総数を返す
func (s *RunStats) Fetched() int {
	return s.FetchedRSS + s.FetchedAlerts
}

// Published は公開した記事の総数を返す
func (s *RunStats) Published() int {
	return s.PublishedRSS + s.PublishedAlerts
}
