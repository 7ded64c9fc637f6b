// =============================================================================
// main.go - Biotech Relay パイプラインのエントリーポイント
// =============================================================================
//
// このプログラムは、バイオテックニュースの収集・選抜・Notion保存を
// 自動化するCLIツールです。
//
// =============================================================================
// 【処理フロー】
// =============================================================================
//
//   ┌─────────────┐    ┌─────────────┐    ┌─────────────┐
//   │  1. 設定    │ -> │  2. 収集    │ -> │  3. 選抜    │
//   │  読み込み   │    │  RSS+Alerts │    │ 2段階クォータ│
//   └─────────────┘    └─────────────┘    └─────────────┘
//          │                  │                  │
//          v                  v                  v
//   .env読み込み        24フィード +       関連度スコアで
//   CLIフラグ解析       アラートメール      ランキング・選抜
//
//   ┌─────────────┐    ┌─────────────┐
//   │  4. 公開    │ -> │  5. 仕上げ  │
//   │  Notion保存 │    │ 索引+カーソル│
//   └─────────────┘    └─────────────┘
//
// =============================================================================
// 【CLIフラグ一覧】
// =============================================================================
//
//   -alerts      アラートメールJSONファイルのパス（省略時: ALERTS_FILE）
//   -feeds       フィード定義JSONファイルのパス（省略時: デフォルトセット）
//   -cursor      実行カーソルファイルのパス
//   -pdfDir      PDF保存先ディレクトリ
//   -topLimit    1回の実行での公開上限
//   -minSelect   ティア1の最低確保枠
//   -maxConsider ティア2の候補プール上限
//   -out         実行統計JSONの出力先（省略時: stdout）
//   -sendReport  実行レポートをメール送信
//   -debug       デバッグモード（取得期間60日、カーソル保存なし）
//
// =============================================================================
// 【初心者向けポイント】
// =============================================================================
//
// - flag パッケージでCLI引数を解析
// - godotenv パッケージで.envファイルを読み込み
// - エラーと進捗は標準エラー出力に出力（stdoutはJSONのみ）
//
// =============================================================================
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv" // .env ファイル読み込み

	"biotech-relay/internal/pipeline"
)

func main() {
	// .env ファイルから環境変数を読み込み
	// ファイルが存在しない場合はログを出力するが、処理は続行する
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "WARN: .env file not loaded: %v (using environment variables only)\n", err)
	}

	var (
		alertsFile  = flag.String("alerts", "", "path to exported alert messages JSON (overrides ALERTS_FILE)")
		feedsFile   = flag.String("feeds", "", "path to feeds JSON map (name -> URL); empty uses default feeds")
		cursorPath  = flag.String("cursor", "", "path to last run cursor file (overrides LAST_RUN_FILE)")
		pdfDir      = flag.String("pdfDir", "", "directory for downloaded PDFs (overrides PDF_DIR)")
		topLimit    = flag.Int("topLimit", 0, "max articles published per run (overrides TOP_ARTICLES_LIMIT)")
		minSelect   = flag.Int("minSelect", 0, "guaranteed tier-1 slots (overrides TOP_ARTICLES_MIN)")
		maxConsider = flag.Int("maxConsider", 0, "tier-2 candidate pool cap (overrides TOP_ARTICLES_MAX)")
		outFile     = flag.String("out", "", "optional: write run stats JSON to this path (default: stdout)")
		sendReport  = flag.Bool("sendReport", false, "send run report via email")
		debug       = flag.Bool("debug", false, "debug mode: widen lookback to 60 days, skip cursor save")
	)
	flag.Parse()

	cfg, err := pipeline.LoadConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	// フラグによる上書き
	if *alertsFile != "" {
		cfg.AlertsFile = *alertsFile
	}
	if *cursorPath != "" {
		cfg.CursorPath = *cursorPath
	}
	if *pdfDir != "" {
		cfg.PDFDir = *pdfDir
	}
	if *topLimit > 0 {
		cfg.Selection.TopLimit = *topLimit
	}
	if *minSelect > 0 {
		cfg.Selection.MinSelect = *minSelect
	}
	if *maxConsider > 0 {
		cfg.Selection.MaxConsider = *maxConsider
	}
	if *debug {
		cfg.Debug = true
	}

	if *feedsFile != "" {
		feeds := map[string]string{}
		if err := readJSONFile(*feedsFile, &feeds); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: failed to read feeds file: %v\n", err)
			os.Exit(1)
		}
		cfg.Feeds = feeds
	}

	store, err := pipeline.NewNotionStore(cfg.NotionToken, cfg.DatabaseID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	var mailbox pipeline.AlertMailbox
	if cfg.AlertsFile != "" {
		mailbox = &pipeline.FileMailbox{Path: cfg.AlertsFile}
	}

	p := pipeline.New(cfg, store, mailbox)

	stats, err := p.Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: pipeline run failed: %v\n", err)
		os.Exit(1)
	}

	if *sendReport {
		sendRunReport(cfg, stats)
	}

	// 実行統計をJSONで出力
	if *outFile != "" {
		if err := writeJSONFile(*outFile, stats); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: failed to write stats: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "INFO: stats written to %s\n", *outFile)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to encode stats: %v\n", err)
		os.Exit(1)
	}
}
