// cmd/runner/main.go
package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/leadflow/automation/internal/db"
	"github.com/leadflow/automation/internal/log"
	"github.com/leadflow/automation/internal/repository"
	"github.com/leadflow/automation/internal/service"
	"github.com/leadflow/automation/internal/transport"
)

// The runner drives the two batch passes on independent cadences: the
// enrollment pass over the recent-lead window, and the dispatch pass over
// due executions.
func main() {
	logger := log.GetLogger()

	if err := godotenv.Load(); err != nil {
		logger.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	db.Init()

	leadRepo := &repository.LeadRepository{DB: db.DB}
	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	executionRepo := &repository.ExecutionRepository{DB: db.DB}

	enrollment := &service.EnrollmentService{
		LeadRepo:      leadRepo,
		CampaignRepo:  campaignRepo,
		ExecutionRepo: executionRepo,
		Lookback:      lookbackFromEnv(),
	}

	dispatcher := &service.Dispatcher{
		LeadRepo:      leadRepo,
		CampaignRepo:  campaignRepo,
		ExecutionRepo: executionRepo,
		Email: transport.NewEmailClient(
			os.Getenv("EMAIL_API_URL"),
			os.Getenv("EMAIL_API_KEY"),
			os.Getenv("EMAIL_FROM_ADDR"),
			os.Getenv("EMAIL_FROM_NAME"),
		),
		WhatsApp: transport.NewWhatsAppClient(
			os.Getenv("WHATSAPP_API_URL"),
			os.Getenv("WHATSAPP_ACCESS_TOKEN"),
			os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			os.Getenv("WHATSAPP_LANG"),
		),
		BatchSize: batchSizeFromEnv(),
	}

	enrollSpec := os.Getenv("ENROLL_CRON")
	if enrollSpec == "" {
		enrollSpec = "@every 1m"
	}
	dispatchSpec := os.Getenv("DISPATCH_CRON")
	if dispatchSpec == "" {
		dispatchSpec = "@every 1m"
	}

	c := cron.New()

	if _, err := c.AddFunc(enrollSpec, func() {
		if _, err := enrollment.Run(); err != nil {
			logger.Errorf("enrollment pass failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("invalid ENROLL_CRON %q: %v", enrollSpec, err)
	}

	if _, err := c.AddFunc(dispatchSpec, func() {
		if _, err := dispatcher.Run(); err != nil {
			logger.Errorf("dispatch pass failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("invalid DISPATCH_CRON %q: %v", dispatchSpec, err)
	}

	logger.Printf("🚀 Runner started (enroll %s, dispatch %s)", enrollSpec, dispatchSpec)
	c.Run()
}

func lookbackFromEnv() time.Duration {
	hours, err := strconv.Atoi(os.Getenv("LEAD_LOOKBACK_HOURS"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

func batchSizeFromEnv() int {
	size, err := strconv.Atoi(os.Getenv("DISPATCH_BATCH_SIZE"))
	if err != nil || size <= 0 {
		return service.DefaultBatchSize
	}
	return size
}
