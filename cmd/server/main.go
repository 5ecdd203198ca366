// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/julianb233/outreach-backend/internal/config"
	"github.com/julianb233/outreach-backend/internal/controller"
	"github.com/julianb233/outreach-backend/internal/db"
	"github.com/julianb233/outreach-backend/internal/dispatch"
	"github.com/julianb233/outreach-backend/internal/handler"
	"github.com/julianb233/outreach-backend/internal/queue"
	"github.com/julianb233/outreach-backend/internal/repository"
	"github.com/julianb233/outreach-backend/internal/service"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	// Init DB
	db.Init()

	personRepo := &repository.PersonRepository{DB: db.DB}
	queueRepo := &repository.QueueRepository{DB: db.DB}
	historyRepo := &repository.HistoryRepository{DB: db.DB}

	var gateway dispatch.Gateway = dispatch.NewIMessageGateway(
		cfg.Dispatch.SSHUser,
		cfg.Dispatch.SSHHost,
		time.Duration(cfg.Dispatch.TimeoutSeconds)*time.Second,
	)
	if cfg.Dispatch.SSHHost == "" {
		gateway = dispatch.FuncGateway(func(address, message string) error {
			log.Printf("📨 [dry-run] to %s: %s", address, message)
			return nil
		})
		log.Println("⚠️ No dispatch host configured, sends run in dry-run mode")
	}

	outreachService := &service.OutreachService{
		PersonRepo:   personRepo,
		QueueRepo:    queueRepo,
		HistoryRepo:  historyRepo,
		Gateway:      gateway,
		Policy:       &service.DaypartPolicy{DefaultTimezone: cfg.Outreach.DefaultTimezone},
		DailyLimit:   cfg.Outreach.DailyLimit,
		CooldownDays: cfg.Outreach.DenyCooldownDays,
		MorningHour:  cfg.Outreach.MorningSendHour,
	}

	// Without a broker the server runs its own scheduler: a ticker publishes
	// due queue items to the in-process dispatch subscriber. With RabbitMQ
	// configured, cmd/worker owns scheduled dispatch instead.
	if cfg.Queue.RabbitMQURL == "" {
		q := queue.NewInMemoryQueue()
		queue.StartDispatchSubscriber(q, outreachService)
		queue.StartScheduler(q, outreachService, cfg.PollInterval(), cfg.Scheduler.BatchSize)
		log.Println("📭 No broker configured, running in-process scheduler every", cfg.PollInterval())
	}

	outreachController := &controller.OutreachController{
		OutreachService: outreachService,
	}

	queueHandler := handler.NewQueueHandler(outreachService)

	r := chi.NewRouter()

	// Outreach routes
	r.Get("/outreach/candidates", outreachController.Candidates)
	r.Post("/outreach/send", outreachController.Send)
	r.Post("/outreach/approve", outreachController.Approve)
	r.Post("/outreach/deny", outreachController.Deny)
	r.Post("/outreach/delay", outreachController.Delay)
	r.Get("/outreach/queue", queueHandler.ListQueueHandler)
	r.Put("/outreach/queue", queueHandler.UpdateQueueHandler)
	r.Get("/outreach/stats", queueHandler.StatsHandler)

	log.Println("🚀 Server running on", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, r))
}
