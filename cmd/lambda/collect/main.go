// =============================================================================
// Lambda: collect-articles
// =============================================================================
//
// RSSフィードとGoogle Alertsから記事を収集し、選抜してNotion DBに
// 保存するLambda関数
//
// 環境変数:
//   - NOTION_TOKEN:       Notion API Token (必須)
//   - DATABASE_ID:        NotionデータベースID (必須)
//   - RSS_FEEDS:          フィード名→URLのJSONマップ (任意)
//   - ALERTS_FILE:        アラートメールJSONのパス (任意)
//   - TOP_ARTICLES_MIN:   ティア1の最低確保枠 (デフォルト: 10)
//   - TOP_ARTICLES_MAX:   ティア2の候補プール上限 (デフォルト: 20)
//   - TOP_ARTICLES_LIMIT: 1回の実行での公開上限 (デフォルト: 15)
//   - LAST_RUN_FILE:      実行カーソルのパス (デフォルト: last_run.txt)
//   - EMAIL_FROM:         エラー通知メール送信元 (任意)
//   - EMAIL_PASSWORD:     Gmailアプリパスワード (任意)
//   - EMAIL_TO:           エラー通知メール送信先 (任意)
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"biotech-relay/internal/pipeline"
)

// Response はLambdaレスポンス
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Collected  int    `json:"collected"`
	Published  int    `json:"published"`
}

// Handler はLambdaのメインハンドラー
func Handler(ctx context.Context, event interface{}) (Response, error) {
	log.Println("Starting collect-articles Lambda...")

	cfg, err := pipeline.LoadConfigFromEnv()
	if err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}

	store, err := pipeline.NewNotionStore(cfg.NotionToken, cfg.DatabaseID)
	if err != nil {
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	var mailbox pipeline.AlertMailbox
	if cfg.AlertsFile != "" {
		mailbox = &pipeline.FileMailbox{Path: cfg.AlertsFile}
	}

	p := pipeline.New(cfg, store, mailbox)

	stats, err := p.Run(ctx)
	if err != nil {
		log.Printf("Error running pipeline: %v", err)
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	// ソースエラーがあればログに記録し、メールで通知
	if len(stats.SourceErrors) > 0 {
		log.Printf("WARNING: %d source(s) failed:", len(stats.SourceErrors))
		for _, e := range stats.SourceErrors {
			log.Printf("  %s", e)
		}
		sendErrorNotification(cfg, stats)
	}

	log.Printf("Published %d/%d articles to Notion", stats.Published(), stats.Fetched())

	return Response{
		StatusCode: 200,
		Message: fmt.Sprintf("Successfully collected %d articles, published %d to Notion",
			stats.Fetched(), stats.Published()),
		Collected: stats.Fetched(),
		Published: stats.Published(),
	}, nil
}

// sendErrorNotification はエラー通知メールを送信する
// EMAIL_FROM, EMAIL_PASSWORD, EMAIL_TO が設定されている場合のみ送信
func sendErrorNotification(cfg *pipeline.Config, stats *pipeline.RunStats) {
	if cfg.EmailFrom == "" || cfg.EmailPassword == "" || cfg.EmailTo == "" {
		log.Println("Email env vars not set, skipping error notification email")
		return
	}

	sender, err := pipeline.NewEmailSender(cfg.EmailFrom, cfg.EmailPassword, cfg.EmailTo)
	if err != nil {
		log.Printf("Failed to create email sender: %v", err)
		return
	}

	subject := fmt.Sprintf("[Biotech Relay] %d source(s) failed - %s",
		len(stats.SourceErrors), time.Now().Format("2006-01-02 15:04"))

	var body strings.Builder
	body.WriteString("Biotech Relay source collection errors:\n\n")
	for _, e := range stats.SourceErrors {
		body.WriteString("  " + e + "\n")
	}
	body.WriteString(fmt.Sprintf("\nSuccessfully collected: %d articles, published: %d\n",
		stats.Fetched(), stats.Published()))
	body.WriteString(fmt.Sprintf("Timestamp: %s\n", time.Now().Format(time.RFC3339)))

	msg := sender.BuildMessage(subject, body.String())
	if err := sender.SendWithRetry(msg); err != nil {
		log.Printf("Failed to send error notification email: %v", err)
	} else {
		log.Println("Error notification email sent")
	}
}

func main() {
	lambda.Start(Handler)
}
