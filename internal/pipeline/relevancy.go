// =============================================================================
// relevancy.go - 関連度スコアリングエンジン
// =============================================================================
//
// このファイルは、記事のタイトル・要約・収集元から関連度スコア（0.0〜1.0）を
// 計算します。selection.goのランキングとNotionの「Relevancy Score」列の
// 両方で使用される、Biotech Relayの中核機能です。
//
// =============================================================================
// 【スコアの計算方法】
// =============================================================================
//
// 最終スコア = キーワード重みの合計 + 収集元ブースト（上限1.0でクランプ）
//
//   ┌─────────────────────────────────────┬────────┐
//   │ 評価項目                            │ 加算値 │
//   ├─────────────────────────────────────┼────────┤
//   │ キーワード出現（1語あたり）         │ 0.1〜0.4 │
//   │ Google Alerts由来                   │  +0.3  │
//   │ 高価値トピックのアラート（最大1回） │  +0.2  │
//   └─────────────────────────────────────┴────────┘
//
// 合計が1.0を超える場合は正規化ではなくクランプします（意図的な方針）。
//
// =============================================================================
// 【初心者向けポイント】
// =============================================================================
//
// - 部分文字列マッチのみ（語幹処理なし、大文字小文字は無視）
// - 同じキーワードが何回出現しても加算は1回だけ
// - 純粋関数：I/Oも副作用もなく、同じ入力には常に同じ出力
//
// =============================================================================
package pipeline

import "strings"

// keywordWeight はキーワードとその重みのペア
type keywordWeight struct {
	keyword string
	weight  float64
}

// relevancyKeywords は関連度計算用のキーワード→重みテーブル
//
// 重みはチューニング可能な方針定数であり、導出されたものではない。
// 珍しく focused なトピック（crispr, longevity, neurotech）ほど重い。
var relevancyKeywords = []keywordWeight{
	// バイオテクノロジー一般
	{"biotech", 0.3}, {"biotechnology", 0.3}, {"genetic", 0.2}, {"genomics", 0.2},
	// AI・機械学習
	{"ai", 0.3}, {"artificial intelligence", 0.3}, {"machine learning", 0.2},
	// 長寿・老化研究
	{"longevity", 0.4}, {"aging", 0.3}, {"senescence", 0.2},
	// ニューロテック
	{"neurotech", 0.4}, {"neuroscience", 0.3}, {"brain", 0.2},
	// ゲノム編集
	{"crispr", 0.4}, {"gene editing", 0.3}, {"genome", 0.2},
	// がん研究
	{"cancer", 0.3}, {"oncology", 0.2}, {"tumor", 0.2},
	// 汎用（重み低）
	{"health", 0.1}, {"innovation", 0.1}, {"breakthrough", 0.2},
}

// alertBoost はGoogle Alerts由来の記事への一律ブースト
//
// アラートはユーザーが設定した検索条件で事前フィルタされているため、
// RSSフィードの記事より関連している可能性が高い。
const alertBoost = 0.3

// highValueTopicBoost は高価値トピックのアラートへの追加ブースト（最大1回）
const highValueTopicBoost = 0.2

// highValueTopics はアラートの収集元名（"Google Alerts: <トピック>"）に
// 含まれていた場合に追加ブーストを与えるトピック
var highValueTopics = []string{
	"crispr", "gene editing", "longevity", "neurotech",
	"brain", "biotech", "ai", "genetic",
}

// CalculateRelevancy は記事の関連度スコア（0.0〜1.0）を計算する
//
// 【処理の流れ】
//  1. タイトルと要約を連結して小文字化
//  2. キーワードテーブルを走査し、部分文字列として出現した重みを合計
//  3. Google Alerts由来なら一律ブーストを加算
//  4. 収集元名に高価値トピックが含まれていれば追加ブースト（何語一致しても1回）
//  5. 0.0〜1.0にクランプ
//
// 空のタイトル・要約も正常な入力であり、その場合は残りのシグナルだけで
// スコアが決まる。
func CalculateRelevancy(title, summary string, sourceType SourceType, source string) float64 {
	text := strings.ToLower(title + " " + summary)

	score := 0.0
	for _, kw := range relevancyKeywords {
		if strings.Contains(text, kw.keyword) {
			score += kw.weight
		}
	}

	if sourceType == SourceTypeGoogleAlert {
		score += alertBoost

		// 収集元名に高価値トピックが含まれるか確認
		// 複数一致しても追加ブーストは1回だけ
		sourceLower := strings.ToLower(source)
		for _, topic := range highValueTopics {
			if strings.Contains(sourceLower, topic) {
				score += highValueTopicBoost
				break
			}
		}
	}

	return clamp01(score)
}

// clamp01 は値を0〜1の範囲に制限する
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
