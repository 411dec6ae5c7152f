package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/xraph/inbox"
	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/registration"
)

// registrationView is the wire form of a registration with the signing
// secret withheld. The secret is returned exactly twice: on create and on
// rotate.
type registrationView struct {
	ID             id.ID               `json:"id"`
	Name           string              `json:"name"`
	Source         string              `json:"source"`
	Description    string              `json:"description,omitempty"`
	EventsFilter   []string            `json:"eventsFilter"`
	Status         registration.Status `json:"status"`
	DeliveryCount  int                 `json:"deliveryCount"`
	LastDeliveryAt *time.Time          `json:"lastDeliveryAt,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func newRegistrationView(reg *registration.Registration) registrationView {
	return registrationView{
		ID:             reg.ID,
		Name:           reg.Name,
		Source:         reg.Source,
		Description:    reg.Description,
		EventsFilter:   reg.EventsFilter,
		Status:         reg.Status,
		DeliveryCount:  reg.DeliveryCount,
		LastDeliveryAt: reg.LastDeliveryAt,
		CreatedAt:      reg.CreatedAt,
		UpdatedAt:      reg.UpdatedAt,
	}
}

type createRegistrationResponse struct {
	WebhookID id.ID  `json:"webhookId"`
	Secret    string `json:"secret"`
	URL       string `json:"url"`
}

func (h *Handler) createRegistration(w http.ResponseWriter, r *http.Request) {
	var input registration.Input
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := h.inbox.Registrations().Create(r.Context(), input)
	if err != nil {
		var vErr *registration.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, createRegistrationResponse{
		WebhookID: reg.ID,
		Secret:    reg.Secret,
		URL:       "/webhooks/" + reg.ID.String(),
	})
}

func (h *Handler) listRegistrations(w http.ResponseWriter, r *http.Request) {
	opts := registration.ListOpts{
		Limit: queryInt(r, "limit", 0),
	}
	if s := queryParam(r, "status"); s != "" {
		status := registration.Status(s)
		opts.Status = &status
	}

	regs, err := h.inbox.Registrations().List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]registrationView, 0, len(regs))
	for _, reg := range regs {
		views = append(views, newRegistrationView(reg))
	}

	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) getRegistration(w http.ResponseWriter, r *http.Request) {
	regID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	reg, getErr := h.inbox.Registrations().Get(r.Context(), regID)
	if getErr != nil {
		if errors.Is(getErr, inbox.ErrRegistrationNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, getErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, newRegistrationView(reg))
}

func (h *Handler) updateRegistration(w http.ResponseWriter, r *http.Request) {
	regID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	var input registration.UpdateInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, updateErr := h.inbox.Registrations().Update(r.Context(), regID, input)
	if updateErr != nil {
		if errors.Is(updateErr, inbox.ErrRegistrationNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		var vErr *registration.ValidationError
		if errors.As(updateErr, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, updateErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, newRegistrationView(reg))
}

func (h *Handler) deleteRegistration(w http.ResponseWriter, r *http.Request) {
	regID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	if deleteErr := h.inbox.Registrations().Delete(r.Context(), regID); deleteErr != nil {
		if errors.Is(deleteErr, inbox.ErrRegistrationNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, deleteErr.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pauseRegistration(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, registration.StatusPaused)
}

func (h *Handler) resumeRegistration(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, registration.StatusActive)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, status registration.Status) {
	regID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	if _, setErr := h.inbox.Registrations().SetStatus(r.Context(), regID, status); setErr != nil {
		if errors.Is(setErr, inbox.ErrRegistrationNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, setErr.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rotateSecret(w http.ResponseWriter, r *http.Request) {
	regID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	newSecret, rotateErr := h.inbox.Registrations().RotateSecret(r.Context(), regID)
	if rotateErr != nil {
		if errors.Is(rotateErr, inbox.ErrRegistrationNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, rotateErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"secret": newSecret})
}

func (h *Handler) sendTestEvent(w http.ResponseWriter, r *http.Request) {
	regID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	res := h.inbox.SendTestEvent(r.Context(), regID)
	writeJSON(w, statusForResult(res), res)
}
