package api

import (
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/xraph/inbox"
	"github.com/xraph/inbox/id"
)

// Signature headers read by the ingest endpoint.
const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderEventType = "X-Webhook-Event"
)

// ingest accepts one inbound webhook delivery. The body is passed to the
// reception pipeline byte for byte; the signature must cover exactly those
// bytes.
func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	webhookID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return
	}

	defer r.Body.Close()
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	res := h.inbox.Receive(r.Context(), inbox.ReceiveInput{
		WebhookID: webhookID,
		Payload:   payload,
		Signature: r.Header.Get(HeaderSignature),
		Timestamp: r.Header.Get(HeaderTimestamp),
		EventType: r.Header.Get(HeaderEventType),
		RemoteIP:  remoteIP(r),
	})

	writeJSON(w, statusForResult(res), res)
}

// statusForResult maps a reception outcome onto an HTTP status code. The
// pipeline itself never errors; the message tells rejection classes apart.
func statusForResult(res *inbox.ReceiveResult) int {
	switch {
	case res.Success:
		return http.StatusOK
	case res.Message == "Webhook not found":
		return http.StatusNotFound
	case res.Message == "Rate limit exceeded":
		return http.StatusTooManyRequests
	case res.Message == "Invalid signature",
		res.Message == "Timestamp too old or invalid":
		return http.StatusUnauthorized
	case res.Message == "Webhook processing is disabled":
		return http.StatusServiceUnavailable
	case strings.HasPrefix(res.Message, "Failed to"):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
