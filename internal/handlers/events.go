package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/afikmenashe/activityfeed/internal/apperr"
	"github.com/afikmenashe/activityfeed/internal/ingest"
)

// createEventRequest is the wire shape for POST /api/events.
type createEventRequest struct {
	ActorID       int64      `json:"actor_id"`
	Verb          string     `json:"verb"`
	ObjectType    string     `json:"object_type"`
	ObjectID      string     `json:"object_id"`
	TargetUserIDs []int64    `json:"target_user_ids"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	IdemKey       string     `json:"idempotency_key,omitempty"`
}

type createEventResponse struct {
	EventID int64 `json:"event_id"`
	Created bool  `json:"created"`
}

// CreateEvent handles POST /api/events: the Ingest Coordinator's HTTP
// entrypoint.
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	userID, err := assertedUserID(r)
	if err != nil {
		writeError(w, err, "create_event.auth")
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.InvalidArgument, "invalid request body", err), "create_event.decode")
		return
	}

	// The Idempotency-Key header takes precedence over the body field.
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey == "" {
		idemKey = req.IdemKey
	}

	res, err := h.Ingest.Ingest(r.Context(), ingest.Input{
		ActorID:        req.ActorID,
		Verb:           req.Verb,
		ObjectType:     req.ObjectType,
		ObjectID:       req.ObjectID,
		TargetUserIDs:  req.TargetUserIDs,
		CreatedAt:      req.CreatedAt,
		IdemKey:        idemKey,
		AssertedUserID: userID,
	})
	if err != nil {
		if h.Metrics != nil {
			h.Metrics.RecordIngestError()
		}
		writeError(w, err, "create_event.ingest")
		return
	}

	if h.Metrics != nil {
		if res.Created {
			h.Metrics.RecordIngested()
		} else {
			h.Metrics.RecordReplayed()
		}
	}

	status := http.StatusCreated
	if !res.Created {
		status = http.StatusOK
	}
	writeJSON(w, status, createEventResponse{EventID: res.EventID, Created: res.Created})
}
