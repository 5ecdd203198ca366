package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/streadway/amqp"

	"github.com/julianb233/outreach-backend/internal/config"
	"github.com/julianb233/outreach-backend/internal/db"
	"github.com/julianb233/outreach-backend/internal/dispatch"
	appErrors "github.com/julianb233/outreach-backend/internal/errors"
	"github.com/julianb233/outreach-backend/internal/repository"
	"github.com/julianb233/outreach-backend/internal/service"
)

type QueueJob struct {
	QueueItemID int `json:"queue_item_id"`
}

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal("failed to load config:", err)
	}
	if cfg.Queue.RabbitMQURL == "" {
		log.Fatal("RABBITMQ_URL is required for the worker")
	}

	db.Init()

	personRepo := &repository.PersonRepository{DB: db.DB}
	queueRepo := &repository.QueueRepository{DB: db.DB}
	historyRepo := &repository.HistoryRepository{DB: db.DB}

	gateway := dispatch.NewIMessageGateway(
		cfg.Dispatch.SSHUser,
		cfg.Dispatch.SSHHost,
		time.Duration(cfg.Dispatch.TimeoutSeconds)*time.Second,
	)

	outreachService := &service.OutreachService{
		PersonRepo:   personRepo,
		QueueRepo:    queueRepo,
		HistoryRepo:  historyRepo,
		Gateway:      gateway,
		Policy:       &service.DaypartPolicy{DefaultTimezone: cfg.Outreach.DefaultTimezone},
		CooldownDays: cfg.Outreach.DenyCooldownDays,
		MorningHour:  cfg.Outreach.MorningSendHour,
	}

	// Connect to RabbitMQ
	conn, err := amqp.Dial(cfg.Queue.RabbitMQURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.Queue.Name, // name
		true,           // durable
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	// Poller: publish due queue item ids on the configured cadence.
	go pollDueItems(ch, q.Name, outreachService, cfg.PollInterval(), cfg.Scheduler.BatchSize)

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var job QueueJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Println("Invalid job:", err)
				d.Ack(false)
				continue
			}

			if err := processItem(job.QueueItemID, outreachService); err != nil {
				log.Println("Failed to process queue item:", err)
				// Infra errors are republished with an incremented retry
				// header; dispatch failures stay pending in the DB and come
				// back on the next poll. Nack cannot carry a counter: a
				// requeued delivery keeps its original headers.
				if redeliver, attempt := shouldRedeliver(d.Headers, err); redeliver {
					if pubErr := republish(ch, q.Name, d.Body, attempt); pubErr != nil {
						log.Println("Failed to republish job, falling back to requeue:", pubErr)
						d.Nack(false, true)
						continue
					}
				} else if retriable(err) {
					log.Printf("Dropping job after %d attempts: %s", maxAttempts, d.Body)
				}
			}

			d.Ack(false)
		}
	}()

	log.Println("Worker running, waiting for messages...")
	<-forever
}

func pollDueItems(ch *amqp.Channel, queueName string, svc *service.OutreachService, every time.Duration, batchSize int) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for range ticker.C {
		ids, err := svc.ListDueIDs(batchSize)
		if err != nil {
			log.Println("Failed to list due items:", err)
			continue
		}

		for _, id := range ids {
			body, _ := json.Marshal(QueueJob{QueueItemID: id})
			err := ch.Publish(
				"",
				queueName,
				false,
				false,
				amqp.Publishing{
					ContentType: "application/json",
					Body:        body,
				},
			)
			if err != nil {
				log.Println("Failed to publish job for item", id, ":", err)
			}
		}
	}
}

func processItem(itemID int, svc *service.OutreachService) error {
	_, err := svc.SendQueued(itemID)
	if err == nil {
		return nil
	}

	switch err.(type) {
	case *appErrors.ErrDispatchFailure:
		// Left pending; the next poll picks it up.
		log.Println("Dispatch failed, item left pending:", err)
		return nil
	case *appErrors.ErrNoContactChannel:
		log.Println("No contact channel, cancelling item", itemID)
		if _, cancelErr := svc.CancelQueued(itemID); cancelErr != nil {
			log.Println("Failed to cancel item:", cancelErr)
		}
		return nil
	}
	if appErrors.IsNotFound(err) {
		log.Println("Item or person gone, skipping:", err)
		return nil
	}
	return err
}

const maxAttempts = 3

func retryCountFrom(headers amqp.Table) int32 {
	if headers == nil {
		return 0
	}
	switch v := headers["x-retry-count"].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	}
	return 0
}

// shouldRedeliver decides whether a failed job goes back on the queue, and
// with what attempt number. Only infra errors are redelivered, and only until
// the attempt cap.
func shouldRedeliver(headers amqp.Table, err error) (bool, int32) {
	if !retriable(err) {
		return false, 0
	}
	count := retryCountFrom(headers)
	if count >= maxAttempts {
		return false, count
	}
	return true, count + 1
}

func republish(ch *amqp.Channel, queueName string, body []byte, attempt int32) error {
	return ch.Publish(
		"",
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Headers:     amqp.Table{"x-retry-count": attempt},
		},
	)
}

func retriable(err error) bool {
	switch err.(type) {
	case *appErrors.ErrDispatchFailure, *appErrors.ErrNoContactChannel, *appErrors.ErrValidation:
		return false
	}
	return !appErrors.IsNotFound(err)
}
