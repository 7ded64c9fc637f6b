package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"biotech-relay/internal/pipeline"
)

// sendRunReport sends the run summary email when the email env vars
// are set; otherwise it just logs and returns.
func sendRunReport(cfg *pipeline.Config, stats *pipeline.RunStats) {
	if cfg.EmailFrom == "" || cfg.EmailPassword == "" || cfg.EmailTo == "" {
		fmt.Fprintln(os.Stderr, "INFO: email env vars not set, skipping run report email")
		return
	}

	sender, err := pipeline.NewEmailSender(cfg.EmailFrom, cfg.EmailPassword, cfg.EmailTo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARN: failed to create email sender: %v\n", err)
		return
	}

	if err := sender.SendRunReport(stats, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "WARN: failed to send run report: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, "INFO: run report email sent")
}

func writeJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readJSONFile(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
