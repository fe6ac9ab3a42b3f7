// cmd/server/main.go
package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/leadflow/automation/internal/controller"
	"github.com/leadflow/automation/internal/db"
	"github.com/leadflow/automation/internal/handler"
	"github.com/leadflow/automation/internal/log"
	"github.com/leadflow/automation/internal/queue"
	"github.com/leadflow/automation/internal/repository"
	"github.com/leadflow/automation/internal/service"
	"github.com/leadflow/automation/internal/transport"
)

func main() {
	logger := log.GetLogger()

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()

	leadRepo := &repository.LeadRepository{DB: db.DB}
	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	executionRepo := &repository.ExecutionRepository{DB: db.DB}

	emailSender := transport.NewEmailClient(
		os.Getenv("EMAIL_API_URL"),
		os.Getenv("EMAIL_API_KEY"),
		os.Getenv("EMAIL_FROM_ADDR"),
		os.Getenv("EMAIL_FROM_NAME"),
	)
	whatsappSender := transport.NewWhatsAppClient(
		os.Getenv("WHATSAPP_API_URL"),
		os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		os.Getenv("WHATSAPP_LANG"),
	)

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
		Email:         emailSender,
		WhatsApp:      whatsappSender,
		BatchSize:     batchSizeFromEnv(),
	}

	activator := &service.ConditionalActivator{
		CampaignRepo:  campaignRepo,
		ExecutionRepo: executionRepo,
	}

	replies := queue.NewWorkQueue(128, func(payload any) error {
		ev, ok := payload.(service.ReplyEvent)
		if !ok {
			logger.Warnln("⚠️ Invalid payload type, expected ReplyEvent")
			return nil
		}
		_, err := activator.HandleReply(ev)
		return err
	})
	replies.Start()

	campaignService := &service.CampaignService{
		CampaignRepo:  campaignRepo,
		LeadRepo:      leadRepo,
		ExecutionRepo: executionRepo,
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
	}

	eventHandler := &handler.EventHandler{
		Replies:    replies,
		Enrollment: enrollment,
		Dispatcher: dispatcher,
	}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaignDetails)
	r.Post("/campaigns/{id}/deactivate", campaignController.DeactivateCampaign)
	r.Post("/steps/{stepID}/preview", campaignController.PreviewStep)

	// Engine routes
	r.Post("/webhooks/replies", eventHandler.ReplyWebhook)
	r.Post("/passes/enrollment", eventHandler.TriggerEnrollment)
	r.Post("/passes/dispatch", eventHandler.TriggerDispatch)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	logger.Println("🚀 Server running on", addr)
	logger.Fatal(http.ListenAndServe(addr, r))
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
