// =============================================================================
// selection.go - 記事選抜パイプライン
// =============================================================================
//
// このファイルは、収集・スコアリング済みの記事群から「この実行で公開する
// 記事」を選び出すアルゴリズムを実装します。Biotech Relayの心臓部です。
//
// =============================================================================
// 【選抜の流れ】
// =============================================================================
//
//   ┌─────────────┐    ┌─────────────┐    ┌─────────────┐
//   │ 1. 鮮度     │ -> │ 2. ソート   │ -> │ 3. 2段階    │
//   │    フィルタ │    │  関連度降順 │    │    クォータ │
//   └─────────────┘    └─────────────┘    └─────────────┘
//
// 1. 鮮度フィルタ: 前回実行時刻以前に公開された記事を除外
//    （公開日時が不明な記事は除外しない = 常に新規扱い）
//
// 2. グローバルソート: 関連度の降順。同点は入力順を維持（安定ソート）
//
// 3. 2段階クォータ:
//    - ティア1: 過去24時間以内に公開された「最近の記事」を優先的に選抜
//      上限 = clamp(MinSelect, 最近の記事数/2, TopLimit)
//    - ティア2: 残りのクォータを日付グループ（新しい日から順）で埋める
//      1日あたりの上限 = max(1, min(10, 残りクォータ/2))
//
// 各候補は admit コールバック（= 公開ゲート + Notion保存）を通過して
// はじめてクォータを消費します。ゲートで弾かれた記事はクォータを
// 消費しません。
//
// =============================================================================
// 【初心者向けポイント】
// =============================================================================
//
// - sort.SliceStable は同点要素の相対順序を保つソート
//   （通常のsort.Sliceでは同点の順序が不定になり、出力が実行ごとに変わりうる）
// - クォータが0になった時点で選抜は終了する
//
// =============================================================================
package pipeline

import (
	"sort"
	"time"
)

// SelectionConfig は選抜アルゴリズムの方針定数を保持する
//
// 環境変数 TOP_ARTICLES_MIN / TOP_ARTICLES_MAX / TOP_ARTICLES_LIMIT で
// 調整できる（config.go参照）。
type SelectionConfig struct {
	// MinSelect はティア1で最低限確保する枠数
	MinSelect int

	// MaxConsider はティア2の候補プールとして考慮する最大記事数
	MaxConsider int

	// TopLimit は1回の実行で公開する記事数の上限
	TopLimit int
}

// DefaultSelectionConfig はデフォルトの選抜設定を返す
func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{
		MinSelect:   10,
		MaxConsider: 20,
		TopLimit:    15,
	}
}

// recentWindow は「最近の記事」とみなす期間（ティア1の対象）
const recentWindow = 24 * time.Hour

// dayKeyFormat はティア2の日付グループのキー形式
// 辞書順ソート = 日付順ソートになる形式を使う
const dayKeyFormat = "2006-01-02"

// FilterStale は前回実行時刻以前に公開された記事を除外する
//
// 境界は排他的: published_at > lastRunAt の記事だけが残る。
// 公開日時が不明（ゼロ値）の記事はこのフィルタでは除外されない。
func FilterStale(articles []Article, lastRunAt time.Time) []Article {
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if a.HasPublishedAt() && !a.PublishedAt.After(lastRunAt) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// sortByRelevancy は関連度の降順で安定ソートしたコピーを返す
//
// 同点の記事は入力順を維持する。入力が決定的なら出力も決定的になる。
func sortByRelevancy(articles []Article) []Article {
	out := append([]Article{}, articles...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevancy > out[j].Relevancy
	})
	return out
}

// SelectTop は2段階クォータで記事を選抜し、候補ごとに admit を呼び出す
//
// 【引数】
//   - articles: 鮮度フィルタ済み・スコア済みの候補記事
//   - now:      現在時刻（テストで固定できるよう注入される）
//   - cfg:      選抜設定
//   - admit:    公開ゲート+保存処理。公開に成功したらtrueを返す
//
// 【戻り値】
//   - 公開に成功した記事数（必ず cfg.TopLimit 以下）
//
// admit がfalseを返した候補（重複・鮮度切れ・保存失敗）はクォータを
// 消費せず、後続の候補の順序にも影響しない。
func SelectTop(articles []Article, now time.Time, cfg SelectionConfig, admit func(Article) bool) int {
	ranked := sortByRelevancy(articles)

	// =========================================================================
	// ティア1: 過去24時間以内の記事
	// =========================================================================
	cutoff := now.Add(-recentWindow)
	var recent []Article
	for _, a := range ranked {
		if a.HasPublishedAt() && a.PublishedAt.After(cutoff) {
			recent = append(recent, a)
		}
	}

	// ティア1の枠数: clamp(MinSelect, len(recent)/2, TopLimit)
	topRecentLimit := len(recent) / 2
	if topRecentLimit < cfg.MinSelect {
		topRecentLimit = cfg.MinSelect
	}
	if topRecentLimit > cfg.TopLimit {
		topRecentLimit = cfg.TopLimit
	}
	if topRecentLimit > len(recent) {
		topRecentLimit = len(recent)
	}

	admitted := map[string]bool{}
	published := 0

	for _, a := range recent[:topRecentLimit] {
		if admit(a) {
			admitted[a.Link] = true
			published++
			if published >= cfg.TopLimit {
				return published
			}
		}
	}

	remaining := cfg.TopLimit - published
	if remaining <= 0 {
		return published
	}

	// =========================================================================
	// ティア2: 残りの候補を日付グループで選抜（新しい日から順）
	// =========================================================================

	// ティア1で公開済みのリンクを除いた候補プール（最大MaxConsider件）
	pool := make([]Article, 0, len(ranked))
	for _, a := range ranked {
		if admitted[a.Link] {
			continue
		}
		pool = append(pool, a)
		if cfg.MaxConsider > 0 && len(pool) >= cfg.MaxConsider {
			break
		}
	}

	// 日付ごとにグループ化（公開日時が不明な記事は今日扱い）
	// poolは関連度降順なので、各グループ内も関連度降順が保たれる
	grouped := map[string][]Article{}
	for _, a := range pool {
		key := now.Format(dayKeyFormat)
		if a.HasPublishedAt() {
			key = a.PublishedAt.Format(dayKeyFormat)
		}
		grouped[key] = append(grouped[key], a)
	}

	// 日付キーを新しい順にソート
	days := make([]string, 0, len(grouped))
	for day := range grouped {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	for _, day := range days {
		if remaining <= 0 {
			break
		}

		// 1日あたりの選抜上限: max(1, min(10, 残りクォータ/2))
		dayLimit := remaining / 2
		if dayLimit > 10 {
			dayLimit = 10
		}
		if dayLimit < 1 {
			dayLimit = 1
		}

		dayArticles := grouped[day]
		if dayLimit > len(dayArticles) {
			dayLimit = len(dayArticles)
		}

		for _, a := range dayArticles[:dayLimit] {
			if admitted[a.Link] {
				continue
			}
			if admit(a) {
				admitted[a.Link] = true
				published++
				remaining--
				if remaining <= 0 {
					break
				}
			}
		}
	}

	return published
}
