// =============================================================================
// config.go - パイプライン設定
// =============================================================================
//
// このファイルは環境変数からの設定読み込みとデフォルト値の管理を行います。
// CLIとLambdaの両エントリポイントが同じ設定を共有します。
//
// 【環境変数】
//   - NOTION_TOKEN:       Notion API Token (必須)
//   - DATABASE_ID:        NotionデータベースID (必須)
//   - RSS_FEEDS:          フィード名→URLのJSONマップ (任意、未設定ならデフォルト)
//   - ALERTS_FILE:        Google AlertsメッセージのJSONファイルパス (任意)
//   - TOP_ARTICLES_MIN:   ティア1の最低確保枠 (デフォルト: 10)
//   - TOP_ARTICLES_MAX:   ティア2の候補プール上限 (デフォルト: 20)
//   - TOP_ARTICLES_LIMIT: 1回の実行での公開上限 (デフォルト: 15)
//   - DEBUG_FETCH:        "true"で取得期間を60日に拡大、カーソル保存をスキップ
//   - LAST_RUN_FILE:      実行カーソルのパス (デフォルト: last_run.txt)
//   - PDF_DIR:            PDF保存先ディレクトリ (デフォルト: pdfs)
//   - EMAIL_FROM:         レポートメール送信元 (任意)
//   - EMAIL_PASSWORD:     Gmailアプリパスワード (任意)
//   - EMAIL_TO:           レポートメール送信先 (任意)
//
// =============================================================================
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はパイプラインの全設定を保持する
type Config struct {
	NotionToken string
	DatabaseID  string

	// Feeds はフィード名→URLのマップ
	Feeds map[string]string

	// AlertsFile はエクスポート済みアラートメールのJSONファイル
	// （空の場合、アラート収集はスキップされる）
	AlertsFile string

	Selection SelectionConfig
	Source    SourceConfig

	// Debug がtrueの場合、取得期間を拡大しカーソルを保存しない
	Debug bool

	CursorPath string
	PDFDir     string

	// PublishDelay はNotion書き込み間の待機時間（レート制限対策）
	PublishDelay time.Duration

	EmailFrom     string // レポートメール用（任意）
	EmailPassword string // レポートメール用（任意）
	EmailTo       string // レポートメール用（任意）
}

// DefaultFeeds はデフォルトのバイオテック系フィードセット
var DefaultFeeds = map[string]string{
	"BioPharma Dive":          "https://www.biopharmadive.com/feeds/news/",
	"Fierce Biotech":          "https://www.fiercebiotech.com/feed",
	"GEN":                     "https://www.genengnews.com/feed/",
	"Nature Biotechnology":    "https://www.nature.com/subjects/biotechnology.rss",
	"BioSpace":                "https://www.biospace.com/rss/news/",
	"MIT Tech Review Biotech": "https://www.technologyreview.com/c/biomedicine/feed",
	"STAT News":               "https://www.statnews.com/feed/",
	"The Scientist":           "https://www.the-scientist.com/rss",
	"Cell":                    "https://www.cell.com/cell/current.rss",
	"Science Magazine":        "https://www.science.org/action/showFeed?type=etoc&feed=rss&jc=science",
	"PLOS Biology":            "https://journals.plos.org/plosbiology/feed/atom",
	"Longevity Technology":    "https://www.longevity.technology/feed/",
	"Singularity Hub":         "https://singularityhub.com/feed/",
	"FDA MedWatch":            "https://www.fda.gov/about-fda/contact-fda/stay-informed/rss-feeds/medwatch/rss.xml",
	"EMA News":                "https://www.ema.europa.eu/en/rss-feeds",
	"Labiotech.eu":            "https://www.labiotech.eu/feed/",
	"BioEngineer.org":         "https://bioengineer.org/feed/",
	"ScienceDaily Biotech":    "https://www.sciencedaily.com/rss/plants_animals/biotechnology.xml",
	"Phys.org Biotech":        "https://phys.org/rss-feed/biology-news/biotechnology/",
	"Endpoints News":          "https://endpts.com/feed/",
	"BioTecNika":              "https://www.biotecnika.org/category/biotech-news/feed/",
	"LifeSciVC":               "https://lifescivc.com/feed/",
	"SENS Research":           "https://www.sens.org/feed/",
	"European Biotechnology":  "https://european-biotechnology.com/feed.xml",
}

// LoadConfigFromEnv は環境変数から設定を読み込む
//
// NOTION_TOKENとDATABASE_IDがない場合はエラーを返す。
// その他の項目はすべてデフォルト値を持つ。
func LoadConfigFromEnv() (*Config, error) {
	cfg := &Config{
		NotionToken:   os.Getenv("NOTION_TOKEN"),
		DatabaseID:    os.Getenv("DATABASE_ID"),
		Feeds:         DefaultFeeds,
		AlertsFile:    os.Getenv("ALERTS_FILE"),
		Selection:     DefaultSelectionConfig(),
		Source:        DefaultSourceConfig(),
		Debug:         strings.EqualFold(os.Getenv("DEBUG_FETCH"), "true"),
		CursorPath:    "last_run.txt",
		PDFDir:        "pdfs",
		PublishDelay:  500 * time.Millisecond,
		EmailFrom:     os.Getenv("EMAIL_FROM"),
		EmailPassword: os.Getenv("EMAIL_PASSWORD"),
		EmailTo:       os.Getenv("EMAIL_TO"),
	}

	if cfg.NotionToken == "" {
		return nil, fmt.Errorf("NOTION_TOKEN is required")
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("DATABASE_ID is required")
	}

	// フィードセットの上書き（JSONマップ）
	if raw := os.Getenv("RSS_FEEDS"); raw != "" {
		feeds := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &feeds); err != nil {
			warnf("invalid RSS_FEEDS JSON: %v, using default feeds", err)
		} else if len(feeds) > 0 {
			cfg.Feeds = feeds
			infof("loaded %d RSS feeds from environment", len(feeds))
		}
	}

	cfg.Selection.MinSelect = envInt("TOP_ARTICLES_MIN", cfg.Selection.MinSelect)
	cfg.Selection.MaxConsider = envInt("TOP_ARTICLES_MAX", cfg.Selection.MaxConsider)
	cfg.Selection.TopLimit = envInt("TOP_ARTICLES_LIMIT", cfg.Selection.TopLimit)

	if p := os.Getenv("LAST_RUN_FILE"); p != "" {
		cfg.CursorPath = p
	}
	if d := os.Getenv("PDF_DIR"); d != "" {
		cfg.PDFDir = d
	}

	return cfg, nil
}

// envInt は環境変数を正の整数として読む（無効・未設定ならフォールバック）
func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		warnf("invalid %s value %q, using default %d", key, v, fallback)
	}
	return fallback
}
