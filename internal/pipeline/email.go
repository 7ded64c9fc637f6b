// =============================================================================
// email.go - メール通知モジュール
// =============================================================================
//
// このファイルはGmail SMTPを使用した実行レポート・エラー通知メールの
// 送信機能を提供します。
//
// =============================================================================
// 【必要な環境変数】
// =============================================================================
//
//   EMAIL_FROM     - 送信元メールアドレス（Gmail）
//   EMAIL_PASSWORD - Gmailアプリパスワード（通常のパスワードではない！）
//   EMAIL_TO       - 送信先メールアドレス（カンマ区切りで複数可）
//
// =============================================================================
// 【Gmailアプリパスワードについて】
// =============================================================================
//
// Googleアカウントの2段階認証を有効にした上で、
// 「アプリパスワード」を生成する必要があります。
//
// =============================================================================
// 【初心者向けポイント】
// =============================================================================
//
// - SMTPはメール送信のための標準プロトコル
// - Gmail SMTPはポート587（TLS）を使用
// - 指数バックオフ: 失敗時に2秒→4秒→8秒と待機時間を増やしてリトライ
// - RFC 5322: メールフォーマットの標準規格
//
// =============================================================================
package pipeline

import (
	"fmt"
	"math"
	"net/smtp"
	"strings"
	"time"
)

// EmailConfig はメール送信の設定を保持する
type EmailConfig struct {
	From     string   // 送信元メールアドレス
	Password string   // Gmailアプリパスワード
	To       []string // 送信先メールアドレス（複数可）
	SMTPHost string   // SMTPサーバーホスト（"smtp.gmail.com"）
	SMTPPort string   // SMTPポート（"587"）
}

// EmailSender はメール送信を担当する
type EmailSender struct {
	config EmailConfig
}

// NewEmailSender は新しいメール送信者を作成する
//
// 【注意】通常のGmailパスワードは使用できません。
// 必ずアプリパスワードを使用してください。
func NewEmailSender(from, password, to string) (*EmailSender, error) {
	if from == "" {
		return nil, fmt.Errorf("EMAIL_FROM is required")
	}
	if password == "" {
		return nil, fmt.Errorf("EMAIL_PASSWORD is required (use Gmail App Password)")
	}
	if to == "" {
		return nil, fmt.Errorf("EMAIL_TO is required")
	}

	toList := strings.Split(to, ",")
	for i, addr := range toList {
		toList[i] = strings.TrimSpace(addr)
	}

	return &EmailSender{
		config: EmailConfig{
			From:     from,
			Password: password,
			To:       toList,
			SMTPHost: "smtp.gmail.com",
			SMTPPort: "587", // TLSポート
		},
	}, nil
}

// SendRunReport は1回の実行のサマリーメールを送信する
func (es *EmailSender) SendRunReport(stats *RunStats, now time.Time) error {
	subject := fmt.Sprintf("Biotech Relay - %s (%d articles published)",
		now.Format("2006-01-02"), stats.Published())

	body := GenerateRunReport(stats, now)
	msg := es.BuildMessage(subject, body)
	return es.SendWithRetry(msg)
}

// GenerateRunReport はプレーンテキストの実行レポート本文を生成する
//
// 【出力フォーマット】
//
//	Biotech Relay Run Summary
//	Generated: 2026-01-05 12:00:00
//
//	========================================
//	Fetched: 120 (RSS: 95, Alerts: 25)
//	Published: 15 (RSS: 11, Alerts: 4)
//	Duplicates: 8 / Stale: 3 / Errors: 0
//	========================================
//
//	[1] Title: "記事タイトル"
//	    Source: Nature Biotechnology
//	    URL: https://...
func GenerateRunReport(stats *RunStats, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("Biotech Relay Run Summary\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format("2006-01-02 15:04:05")))
	sb.WriteString("========================================\n")
	sb.WriteString(fmt.Sprintf("Fetched: %d (RSS: %d, Alerts: %d)\n",
		stats.Fetched(), stats.FetchedRSS, stats.FetchedAlerts))
	sb.WriteString(fmt.Sprintf("Published: %d (RSS: %d, Alerts: %d)\n",
		stats.Published(), stats.PublishedRSS, stats.PublishedAlerts))
	sb.WriteString(fmt.Sprintf("Duplicates: %d / Stale: %d / Errors: %d\n",
		stats.Duplicates, stats.Stale, stats.PublishErrors))
	sb.WriteString("========================================\n\n")

	for i, a := range stats.Added {
		sb.WriteString(fmt.Sprintf("[%d] Title: \"%s\"\n", i+1, a.Title))
		sb.WriteString(fmt.Sprintf("    Source: %s\n", a.Source))
		sb.WriteString(fmt.Sprintf("    URL: %s\n", a.Link))
		if a.PageURL != "" {
			sb.WriteString(fmt.Sprintf("    Notion: %s\n", a.PageURL))
		}
		sb.WriteString("\n")
	}

	if len(stats.SourceErrors) > 0 {
		sb.WriteString("Source errors:\n")
		for _, e := range stats.SourceErrors {
			sb.WriteString("  " + e + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Generated by biotech-relay\n")

	return sb.String()
}

// BuildMessage はRFC 5322準拠のメールメッセージを構築する
//
// 注意: ヘッダーと本文は空行（\r\n）で区切る
func (es *EmailSender) BuildMessage(subject, body string) []byte {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: %s\r\n", es.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(es.config.To, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n") // ヘッダーと本文の区切り
	msg.WriteString(body)

	return []byte(msg.String())
}

// SendWithRetry は指数バックオフでリトライしながらメールを送信する
//
// 【指数バックオフとは】
//
//	失敗するたびに待機時間を2倍にしていく方式
//	1回目失敗: 2秒待機
//	2回目失敗: 4秒待機
//	3回目失敗: 8秒待機
func (es *EmailSender) SendWithRetry(msg []byte) error {
	maxRetries := 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			// 指数バックオフ: 2^i 秒待機
			wait := time.Duration(math.Pow(2, float64(i))) * time.Second
			infof("retrying email send in %v...", wait)
			time.Sleep(wait)
		}

		err := es.send(msg)
		if err == nil {
			return nil
		}

		lastErr = err
		warnf("email send failed (attempt %d/%d): %v", i+1, maxRetries, err)
	}

	return fmt.Errorf("failed to send email after %d retries: %w", maxRetries, lastErr)
}

// send はGmail SMTPを使用してメールを送信する
//
// PLAIN認証を使用（TLSポート587で暗号化される）
func (es *EmailSender) send(msg []byte) error {
	auth := smtp.PlainAuth("", es.config.From, es.config.Password, es.config.SMTPHost)
	addr := es.config.SMTPHost + ":" + es.config.SMTPPort
	return smtp.SendMail(addr, auth, es.config.From, es.config.To, msg)
}
