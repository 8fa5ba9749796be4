package main

// Scheduled by an EventBridge rule. Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-reminders

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"ascend-backend/internal/bootstrap"
	"ascend-backend/internal/reminders"
	"ascend-backend/internal/shared/config"
	"ascend-backend/internal/shared/telemetry"
)

var (
	initOnce sync.Once
	initErr  error
	job      *reminders.Job
)

func initApp() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	job = app.ReminderJob
}

func handler(ctx context.Context, event events.CloudWatchEvent) (reminders.Report, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		return reminders.Report{}, initErr
	}
	defer telemetry.Sync()

	report, err := job.Run(ctx)
	if err != nil {
		telemetry.Error("reminders.run_failed", map[string]any{"event_id": event.ID, "error": err.Error()})
		return report, err
	}
	telemetry.Info("reminders.run_complete", map[string]any{
		"event_id":        event.ID,
		"documents_found": report.DocumentsFound,
		"emails_sent":     report.EmailsSent(),
	})
	return report, nil
}

func main() {
	lambda.Start(handler)
}
