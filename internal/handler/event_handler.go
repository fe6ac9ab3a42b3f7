// internal/handler/event_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/leadflow/automation/internal/queue"
	"github.com/leadflow/automation/internal/service"
)

// EventHandler holds the dependencies for inbound-event and pass-trigger
// HTTP handlers.
type EventHandler struct {
	Replies    *queue.WorkQueue
	Enrollment *service.EnrollmentService
	Dispatcher *service.Dispatcher
}

// ReplyWebhook accepts an inbound reply event and hands it to the
// activation queue. Duplicate deliveries of the same (lead, step, payload)
// are acknowledged but not re-queued.
func (h *EventHandler) ReplyWebhook(w http.ResponseWriter, r *http.Request) {
	var body struct {
		LeadID     int        `json:"lead_id"`
		StepID     int        `json:"step_id"`
		Payload    string     `json:"payload"`
		OccurredAt *time.Time `json:"occurred_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.LeadID == 0 || body.StepID == 0 {
		http.Error(w, "lead_id and step_id are required", http.StatusBadRequest)
		return
	}

	occurredAt := time.Now()
	if body.OccurredAt != nil {
		occurredAt = *body.OccurredAt
	}

	ev := service.ReplyEvent{
		ID:         uuid.New(),
		LeadID:     body.LeadID,
		StepID:     body.StepID,
		Payload:    body.Payload,
		OccurredAt: occurredAt,
	}

	accepted := true
	if err := h.Replies.Enqueue(ev.Fingerprint(), ev); err != nil {
		// Duplicates are fine: the provider re-delivers webhooks.
		accepted = false
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"event_id": ev.ID,
		"accepted": accepted,
	})
}

// TriggerEnrollment runs one enrollment pass on demand.
func (h *EventHandler) TriggerEnrollment(w http.ResponseWriter, r *http.Request) {
	result, err := h.Enrollment.Run()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// TriggerDispatch runs one dispatch pass on demand.
func (h *EventHandler) TriggerDispatch(w http.ResponseWriter, r *http.Request) {
	result, err := h.Dispatcher.Run()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
