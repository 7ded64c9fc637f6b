// =============================================================================
// themes.go - テーマ分類・タグ抽出
// =============================================================================
//
// このファイルは記事テキストからテーマ（分類）とタグを抽出します。
// どちらもNotionの表示・分類用のメタデータであり、ランキングには影響しません。
//
// 【テーマとタグの違い】
//   - テーマ: 大分類（longevity, crispr, cancer等）。該当なしは "general"
//   - タグ:   細かいトピックラベル。最大5件
//
// どちらも固定キーワードテーブルに対する大文字小文字を無視した
// 部分文字列マッチで判定します。結果の順序はテーブルの宣言順です
// （マッチした順ではない）。
//
// =============================================================================
package pipeline

import "strings"

// themeDef はテーマとその判定キーワードの組
type themeDef struct {
	name     string
	keywords []string
}

// themeDefs はテーマ分類テーブル（宣言順 = 結果の順序）
var themeDefs = []themeDef{
	{"longevity", []string{"longevity", "aging", "senescence", "lifespan"}},
	{"neurotech", []string{"neurotech", "neuroscience", "brain", "neural", "cognitive"}},
	{"crispr", []string{"crispr", "gene editing", "genome editing"}},
	{"cancer", []string{"cancer", "oncology", "tumor", "malignancy"}},
	{"biotech", []string{"biotech", "biotechnology", "genetics", "genomics"}},
	{"ai", []string{"ai", "artificial intelligence", "machine learning", "deep learning"}},
	{"ethics", []string{"ethics", "bioethics", "morality", "ethical"}},
}

// generalTheme はどのテーマにも一致しなかった場合のフォールバック
const generalTheme = "general"

// ClassifyThemes はテキストからテーマのリストを返す
//
// どのテーマのキーワードも出現しない場合は ["general"] を返すため、
// 結果は必ず1件以上になる。先頭のテーマがプライマリテーマとして
// Notionの「Themes」セレクト列に使われる。
func ClassifyThemes(text string) []string {
	lower := strings.ToLower(text)

	var detected []string
	for _, def := range themeDefs {
		for _, kw := range def.keywords {
			if strings.Contains(lower, kw) {
				detected = append(detected, def.name)
				break
			}
		}
	}

	if len(detected) == 0 {
		return []string{generalTheme}
	}
	return detected
}

// tagDef はタグとそのトリガーワードの組
type tagDef struct {
	name     string
	triggers []string
}

// tagDefs はタグ抽出テーブル（宣言順 = 結果の順序）
//
// テーマより粒度が細かく、資金調達・規制・臨床試験などの
// ビジネス面のトピックもカバーする。
// "ai " の末尾スペースは "air" や "aid" への誤マッチを避けるため。
var tagDefs = []tagDef{
	{"longevity", []string{"longevity", "aging", "lifespan", "senescence"}},
	{"AI", []string{"artificial intelligence", "machine learning", "ai ", "deep learning"}},
	{"CRISPR", []string{"crispr", "gene editing", "cas9"}},
	{"Cancer", []string{"cancer", "oncology", "tumor"}},
	{"Neuroscience", []string{"brain", "neural", "neuroscience", "cognitive"}},
	{"Genetics", []string{"genetic", "gene", "dna", "genomics"}},
	{"Clinical Trial", []string{"clinical trial", "phase 1", "phase 2", "phase 3", "phase i", "phase ii", "phase iii"}},
	{"Funding", []string{"funding", "investment", "million", "billion", "series", "venture"}},
	{"FDA", []string{"fda", "approval", "approved", "food and drug administration"}},
	{"Research", []string{"research", "study", "studies", "discovery", "discovered"}},
	{"Policy", []string{"policy", "regulation", "regulatory", "law", "legislation"}},
}

// maxTags はタグの最大件数
const maxTags = 5

// ExtractTags はテキストからタグを抽出する（最大5件）
//
// トリガーワードのいずれかが出現したタグを宣言順に収集し、
// 先頭5件で打ち切る。
func ExtractTags(text string) []string {
	lower := strings.ToLower(text)

	var tags []string
	for _, def := range tagDefs {
		for _, w := range def.triggers {
			if strings.Contains(lower, w) {
				tags = append(tags, def.name)
				break
			}
		}
		if len(tags) >= maxTags {
			break
		}
	}
	return tags
}
