package api

import (
	"net/http"

	"github.com/xraph/inbox/id"
)

func (h *Handler) listDeliveries(w http.ResponseWriter, r *http.Request) {
	webhookID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	deliveries, listErr := h.inbox.Store().ListDeliveries(r.Context(), webhookID, queryInt(r, "limit", 50))
	if listErr != nil {
		writeError(w, http.StatusInternalServerError, listErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, deliveries)
}
