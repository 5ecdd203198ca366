package queue

import (
	"fmt"
	"log"
	"sync"
	"time"

	appErrors "github.com/julianb233/outreach-backend/internal/errors"
	"github.com/julianb233/outreach-backend/internal/service"
)

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-process pub/sub queue with retry, used as the
// dispatch path when no external broker is configured.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		log.Printf("Job failed (attempt %d/%d): %+v, error: %v\n", job.RetryCount, job.MaxRetries, job.Payload, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("Job permanently failed after %d attempts: %+v\n", job.MaxRetries, job.Payload)
			return // No requeue
		}

		// Exponential backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// DispatchTopic carries due QueueItem ids from the scheduler to the sender.
const DispatchTopic = "outreach_sends"

// StartDispatchSubscriber wires a subscriber that sends queued outreach items
// by id. Dispatch failures return nil: the item stays pending for the next
// scheduled pass instead of being hammered by the queue's retry loop.
func StartDispatchSubscriber(q Queue, svc *service.OutreachService) {
	err := q.Subscribe(DispatchTopic, func(payload any) error {
		itemID, ok := payload.(int)
		if !ok {
			log.Println("⚠️ Invalid payload type, expected queue item id")
			return nil
		}

		log.Println("📩 Processing queued outreach item ID:", itemID)

		_, err := svc.SendQueued(itemID)
		if err != nil {
			switch err.(type) {
			case *appErrors.ErrDispatchFailure:
				log.Println("⚠️ Dispatch failed, item left pending:", err)
				return nil
			case *appErrors.ErrNoContactChannel:
				log.Println("⚠️ No contact channel, cancelling item:", itemID)
				if _, cancelErr := svc.CancelQueued(itemID); cancelErr != nil {
					log.Println("⚠️ Failed to cancel item:", cancelErr)
				}
				return nil
			}
			if appErrors.IsNotFound(err) {
				log.Println("⚠️ Item or person gone, skipping:", err)
				return nil
			}
			return err // infra error, let the queue retry
		}

		log.Println("✅ Outreach item processed:", itemID)
		return nil
	})

	if err != nil {
		log.Println("⚠️ Failed to start subscriber for", DispatchTopic, ":", err)
	}
}

// StartScheduler publishes due item ids on a fixed cadence. It runs for the
// lifetime of the process.
func StartScheduler(q Queue, svc *service.OutreachService, every time.Duration, batchSize int) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for range ticker.C {
			due, err := svc.ListDueIDs(batchSize)
			if err != nil {
				log.Println("⚠️ Scheduler failed to list due items:", err)
				continue
			}
			for _, id := range due {
				if err := q.Publish(DispatchTopic, id); err != nil {
					log.Println("⚠️ Failed to enqueue item", id, ":", err)
				}
			}
		}
	}()
}
