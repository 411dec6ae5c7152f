package api

import (
	"errors"
	"net/http"

	"github.com/xraph/inbox"
	"github.com/xraph/inbox/event"
	"github.com/xraph/inbox/id"
)

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	webhookID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	opts := event.ListOpts{
		Limit:       queryInt(r, "limit", 50),
		PendingOnly: queryParam(r, "pending") == "true",
	}

	events, listErr := h.inbox.ListEvents(r.Context(), webhookID, opts)
	if listErr != nil {
		if errors.Is(listErr, inbox.ErrRegistrationNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, listErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request) {
	webhookID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	evtID, err := id.ParseEventID(r.PathValue("eventId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	evt, getErr := h.inbox.Store().LoadEvent(r.Context(), webhookID, evtID)
	if getErr != nil {
		if errors.Is(getErr, inbox.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, getErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, evt)
}

// injectionBatchResponse carries the next pending batch plus the refs a
// consumer posts back to /injection/ack once the events are handled.
type injectionBatchResponse struct {
	Events []*event.Event   `json:"events"`
	Refs   []inbox.EventRef `json:"refs"`
	Digest string           `json:"digest,omitempty"`
}

func (h *Handler) pendingInjection(w http.ResponseWriter, r *http.Request) {
	events, err := h.inbox.GetPendingForInjection(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []*event.Event{}
	}

	writeJSON(w, http.StatusOK, injectionBatchResponse{
		Events: events,
		Refs:   inbox.Refs(events),
		Digest: inbox.Digest(events),
	})
}

type ackInjectionRequest struct {
	Events []inbox.EventRef `json:"events"`
}

func (h *Handler) ackInjection(w http.ResponseWriter, r *http.Request) {
	var req ackInjectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.inbox.MarkInjected(r.Context(), req.Events); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
