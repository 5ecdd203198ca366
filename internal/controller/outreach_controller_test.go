package controller_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/julianb233/outreach-backend/internal/controller"
	"github.com/julianb233/outreach-backend/internal/dispatch"
	appErrors "github.com/julianb233/outreach-backend/internal/errors"
	"github.com/julianb233/outreach-backend/internal/model"
	"github.com/julianb233/outreach-backend/internal/service"
)

// memPersonRepo is an in-memory person store for handler tests.
type memPersonRepo struct {
	people  map[int]*model.Person
	denials map[int]time.Time
}

func (m *memPersonRepo) ListActive(limit int) ([]model.Person, error) {
	out := []model.Person{}
	for _, p := range m.people {
		if p.Status == model.StatusActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPersonRepo) GetByID(id int) (*model.Person, error) {
	p, ok := m.people[id]
	if !ok {
		return nil, appErrors.NewPersonNotFound(id)
	}
	cp := *p
	return &cp, nil
}

func (m *memPersonRepo) ListActiveDenials(now time.Time) (map[int]time.Time, error) {
	return m.denials, nil
}

func (m *memPersonRepo) UpsertDenial(personID int, expiresAt time.Time, reason string) error {
	m.denials[personID] = expiresAt
	return nil
}

type memQueueRepo struct {
	items  map[int]*model.QueueItem
	nextID int
}

func (m *memQueueRepo) Create(item *model.QueueItem) error {
	m.nextID++
	item.ID = m.nextID
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memQueueRepo) GetByID(id int) (*model.QueueItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, appErrors.NewQueueItemNotFound(id)
	}
	cp := *item
	return &cp, nil
}

func (m *memQueueRepo) ListPending() ([]model.QueueItem, error) {
	out := []model.QueueItem{}
	for _, item := range m.items {
		if item.Status == model.QueuePending {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *memQueueRepo) ListDue(now time.Time, limit int) ([]model.QueueItem, error) {
	return nil, nil
}

func (m *memQueueRepo) HasPendingForPerson(personID int) (bool, error) {
	for _, item := range m.items {
		if item.PersonID == personID && item.Status == model.QueuePending {
			return true, nil
		}
	}
	return false, nil
}

func (m *memQueueRepo) ClaimForSend(id int) (*model.QueueItem, bool, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, false, appErrors.NewQueueItemNotFound(id)
	}
	if item.Status != model.QueuePending {
		cp := *item
		return &cp, false, nil
	}
	item.Status = model.QueueSending
	cp := *item
	return &cp, true, nil
}

func (m *memQueueRepo) ReleaseClaim(id int) error {
	if item, ok := m.items[id]; ok && item.Status == model.QueueSending {
		item.Status = model.QueuePending
	}
	return nil
}

func (m *memQueueRepo) MarkSent(id, personID int, message string, sentAt time.Time) error {
	m.items[id].Status = model.QueueSent
	m.items[id].SentAt = &sentAt
	return nil
}

func (m *memQueueRepo) Cancel(id int) (*model.QueueItem, error) {
	item, ok := m.items[id]
	if !ok || item.Status != model.QueuePending {
		return nil, appErrors.NewQueueItemNotFound(id)
	}
	item.Status = model.QueueCancelled
	cp := *item
	return &cp, nil
}

func (m *memQueueRepo) UpdatePending(id int, message string, scheduledTime time.Time) (*model.QueueItem, error) {
	item, ok := m.items[id]
	if !ok || item.Status != model.QueuePending {
		return nil, appErrors.NewQueueItemNotFound(id)
	}
	item.Message = message
	item.ScheduledTime = scheduledTime
	cp := *item
	return &cp, nil
}

func (m *memQueueRepo) IncrementRetry(id int) error { return nil }

func (m *memQueueRepo) StatusCounts() (map[string]int, error) {
	counts := map[string]int{}
	for _, item := range m.items {
		counts[item.Status]++
	}
	return counts, nil
}

type memHistoryRepo struct {
	actions int
}

func (m *memHistoryRepo) AppendAction(action *model.OutreachAction) error {
	m.actions++
	return nil
}
func (m *memHistoryRepo) RecordDelivery(personID int, subject, message string, at time.Time) error {
	return nil
}

func newTestRouter(gatewayErr error) (*chi.Mux, *memQueueRepo) {
	persons := &memPersonRepo{
		people: map[int]*model.Person{
			1: {ID: 1, Name: "Ann Ames", Phone: "+15550001111", RelationshipType: "client", Priority: "critical", Status: "active"},
			2: {ID: 2, Name: "Tom Baker", RelationshipType: "prospect", Priority: "high", Status: "active"},
		},
		denials: map[int]time.Time{},
	}
	queue := &memQueueRepo{items: map[int]*model.QueueItem{}}

	svc := &service.OutreachService{
		PersonRepo:  persons,
		QueueRepo:   queue,
		HistoryRepo: &memHistoryRepo{},
		Gateway: dispatch.FuncGateway(func(address, message string) error {
			return gatewayErr
		}),
		Policy: &service.DaypartPolicy{DefaultTimezone: "UTC"},
	}

	ctrl := &controller.OutreachController{OutreachService: svc}

	r := chi.NewRouter()
	r.Get("/outreach/candidates", ctrl.Candidates)
	r.Post("/outreach/send", ctrl.Send)
	r.Post("/outreach/approve", ctrl.Approve)
	r.Post("/outreach/deny", ctrl.Deny)
	r.Post("/outreach/delay", ctrl.Delay)
	return r, queue
}

func postJSON(t *testing.T, router http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCandidatesEndpoint(t *testing.T) {
	router, _ := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/outreach/candidates", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Outreaches []model.OutreachCandidate `json:"outreaches"`
		Summary    map[string]int            `json:"summary"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	// Both seeded people have never been contacted, so both trigger.
	if len(resp.Outreaches) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(resp.Outreaches))
	}
	if resp.Summary["total"] != 2 {
		t.Errorf("unexpected summary %v", resp.Summary)
	}
}

func TestApproveEndpointQueues(t *testing.T) {
	router, queue := newTestRouter(nil)

	w := postJSON(t, router, "/outreach/approve", map[string]interface{}{
		"person_id":        1,
		"message":          "hey Ann, been a while",
		"original_trigger": map[string]string{"trigger_type": "no_contact_warning"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success       bool      `json:"success"`
		QueueID       int       `json:"queue_id"`
		ScheduledTime time.Time `json:"scheduled_time"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.QueueID == 0 {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
	item := queue.items[resp.QueueID]
	if item == nil || item.Status != model.QueuePending {
		t.Fatalf("expected a pending queue item, got %+v", item)
	}
}

func TestApproveWithoutChannelConflicts(t *testing.T) {
	router, _ := newTestRouter(nil)

	w := postJSON(t, router, "/outreach/approve", map[string]interface{}{
		"person_id": 2,
		"message":   "hey Tom",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestApproveUnknownPersonNotFound(t *testing.T) {
	router, _ := newTestRouter(nil)

	w := postJSON(t, router, "/outreach/approve", map[string]interface{}{
		"person_id": 99,
		"message":   "hello",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestSendEndpoint(t *testing.T) {
	router, _ := newTestRouter(nil)

	w := postJSON(t, router, "/outreach/send", map[string]interface{}{
		"person_id": 1,
		"message":   "hey Ann",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSendEndpointBadGatewayOnDispatchFailure(t *testing.T) {
	router, _ := newTestRouter(errors.New("osascript: timed out"))

	w := postJSON(t, router, "/outreach/send", map[string]interface{}{
		"person_id": 1,
		"message":   "hey Ann",
	})
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestDenyEndpoint(t *testing.T) {
	router, _ := newTestRouter(nil)

	w := postJSON(t, router, "/outreach/deny", map[string]interface{}{
		"person_id": 1,
		"message":   "hey Ann",
		"reason":    "spoke yesterday",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// The denied person must vanish from the next candidate pass.
	req := httptest.NewRequest(http.MethodGet, "/outreach/candidates", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp struct {
		Outreaches []model.OutreachCandidate `json:"outreaches"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	for _, c := range resp.Outreaches {
		if c.PersonID == 1 {
			t.Error("denied person still suggested")
		}
	}
}

func TestDelayEndpointValidatesReason(t *testing.T) {
	router, _ := newTestRouter(nil)

	w := postJSON(t, router, "/outreach/delay", map[string]interface{}{
		"person_id":    1,
		"message":      "hey Ann",
		"delay_reason": "next year",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestDelayEndpointQueuesOneHour(t *testing.T) {
	router, queue := newTestRouter(nil)

	w := postJSON(t, router, "/outreach/delay", map[string]interface{}{
		"person_id":    1,
		"message":      "hey Ann",
		"delay_reason": "1h",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		QueueID int `json:"queue_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	item := queue.items[resp.QueueID]
	if item == nil || item.DelayReason != "1h" {
		t.Fatalf("expected a delayed item, got %+v", item)
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	router, _ := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/outreach/approve", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
