package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/inbox"
	"github.com/xraph/inbox/delivery"
	"github.com/xraph/inbox/event"
	"github.com/xraph/inbox/id"
	"github.com/xraph/inbox/registration"
)

// ForgeAPI wires all Forge-style HTTP handlers together.
//
// It covers the admin surface only. The raw ingest endpoint stays on
// [Handler]: signature verification needs the request body byte for byte
// plus the X-Webhook-* headers, which a schema-bound router does not carry.
type ForgeAPI struct {
	inbox *inbox.Inbox
	log   forge.Logger
}

// NewForgeAPI creates a ForgeAPI around an Inbox.
func NewForgeAPI(in *inbox.Inbox, log forge.Logger) *ForgeAPI {
	return &ForgeAPI{
		inbox: in,
		log:   log,
	}
}

// RegisterRoutes registers all inbox admin API routes into the given Forge
// router with full OpenAPI metadata.
func (a *ForgeAPI) RegisterRoutes(router forge.Router) {
	a.registerRegistrationRoutes(router)
	a.registerEventRoutes(router)
	a.registerInjectionRoutes(router)
	a.registerDeliveryRoutes(router)
	a.registerStatsRoutes(router)
}

// ---------------------------------------------------------------------------
// Registration routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerRegistrationRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("registrations"))

	if err := g.POST("/registrations", a.createRegistration,
		forge.WithSummary("Register webhook"),
		forge.WithDescription("Registers a new webhook endpoint and returns its ID, signing secret, and URL. The secret is not retrievable afterwards."),
		forge.WithOperationID("createRegistration"),
		forge.WithRequestSchema(CreateRegistrationForgeRequest{}),
		forge.WithCreatedResponse(CreateRegistrationForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		// Log the error and continue registering other routes instead of failing completely.
		// This ensures that if one route has an issue, the rest of the API remains available.
		// The error will be caught during testing or can be monitored via logs.
		a.log.Error("Failed to register createRegistration route", forge.Error(err))
	}

	if err := g.GET("/registrations", a.listRegistrations,
		forge.WithSummary("List webhooks"),
		forge.WithDescription("Returns registered webhooks, optionally filtered by status."),
		forge.WithOperationID("listRegistrations"),
		forge.WithRequestSchema(ListRegistrationsForgeRequest{}),
		forge.WithListResponse(registrationView{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listRegistrations route", forge.Error(err))
	}

	if err := g.GET("/registrations/:webhookId", a.getRegistration,
		forge.WithSummary("Get webhook"),
		forge.WithDescription("Returns details of a specific webhook registration. The signing secret is withheld."),
		forge.WithOperationID("getRegistration"),
		forge.WithResponseSchema(http.StatusOK, "Registration details", registrationView{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getRegistration route", forge.Error(err))
	}

	if err := g.PUT("/registrations/:webhookId", a.updateRegistration,
		forge.WithSummary("Update webhook"),
		forge.WithDescription("Updates mutable fields of a registration. Absent fields are left untouched."),
		forge.WithOperationID("updateRegistration"),
		forge.WithRequestSchema(UpdateRegistrationForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated registration", registrationView{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register updateRegistration route", forge.Error(err))
	}

	if err := g.DELETE("/registrations/:webhookId", a.deleteRegistration,
		forge.WithSummary("Delete webhook"),
		forge.WithDescription("Permanently deletes a registration along with its events and deliveries."),
		forge.WithOperationID("deleteRegistration"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register deleteRegistration route", forge.Error(err))
	}

	if err := g.PATCH("/registrations/:webhookId/pause", a.pauseRegistration,
		forge.WithSummary("Pause webhook"),
		forge.WithDescription("Pauses a registration. Inbound events are rejected until it resumes."),
		forge.WithOperationID("pauseRegistration"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register pauseRegistration route", forge.Error(err))
	}

	if err := g.PATCH("/registrations/:webhookId/resume", a.resumeRegistration,
		forge.WithSummary("Resume webhook"),
		forge.WithDescription("Reactivates a paused registration."),
		forge.WithOperationID("resumeRegistration"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register resumeRegistration route", forge.Error(err))
	}

	if err := g.POST("/registrations/:webhookId/rotate-secret", a.rotateSecret,
		forge.WithSummary("Rotate secret"),
		forge.WithDescription("Generates a new signing secret. The previous secret stops verifying immediately."),
		forge.WithOperationID("rotateRegistrationSecret"),
		forge.WithResponseSchema(http.StatusOK, "New signing secret", SecretForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register rotateSecret route", forge.Error(err))
	}

	if err := g.POST("/registrations/:webhookId/test", a.sendTestEvent,
		forge.WithSummary("Send test event"),
		forge.WithDescription("Sends a signed synthetic event through the full reception pipeline."),
		forge.WithOperationID("sendTestEvent"),
		forge.WithResponseSchema(http.StatusOK, "Receipt outcome", inbox.ReceiveResult{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register sendTestEvent route", forge.Error(err))
	}
}

func (a *ForgeAPI) createRegistration(ctx forge.Context, req *CreateRegistrationForgeRequest) (*CreateRegistrationForgeResponse, error) {
	input := registration.Input{
		Name:         req.Name,
		Source:       req.Source,
		Description:  req.Description,
		EventsFilter: req.EventsFilter,
	}

	reg, err := a.inbox.Registrations().Create(ctx.Context(), input)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &CreateRegistrationForgeResponse{
		WebhookID: reg.ID,
		Secret:    reg.Secret,
		URL:       "/webhooks/" + reg.ID.String(),
	}

	err = ctx.JSON(http.StatusCreated, resp)
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.JSON.
	return nil, nil
}

func (a *ForgeAPI) listRegistrations(ctx forge.Context, req *ListRegistrationsForgeRequest) ([]registrationView, error) {
	opts := registration.ListOpts{
		Limit: req.Limit,
	}
	if req.Status != "" {
		status := registration.Status(req.Status)
		opts.Status = &status
	}

	regs, err := a.inbox.Registrations().List(ctx.Context(), opts)
	if err != nil {
		return nil, mapError(err)
	}

	views := make([]registrationView, 0, len(regs))
	for _, reg := range regs {
		views = append(views, newRegistrationView(reg))
	}

	return views, nil
}

func (a *ForgeAPI) getRegistration(ctx forge.Context, req *GetRegistrationForgeRequest) (*registrationView, error) {
	regID, err := id.ParseWebhookID(req.WebhookID)
	if err != nil {
		return nil, forge.BadRequest("invalid webhook ID")
	}

	reg, getErr := a.inbox.Registrations().Get(ctx.Context(), regID)
	if getErr != nil {
		return nil, mapError(getErr)
	}

	view := newRegistrationView(reg)
	return &view, nil
}

func (a *ForgeAPI) updateRegistration(ctx forge.Context, req *UpdateRegistrationForgeRequest) (*registrationView, error) {
	regID, err := id.ParseWebhookID(req.WebhookID)
	if err != nil {
		return nil, forge.BadRequest("invalid webhook ID")
	}

	input := registration.UpdateInput{
		Name:         req.Name,
		Source:       req.Source,
		Description:  req.Description,
		EventsFilter: req.EventsFilter,
	}

	reg, updateErr := a.inbox.Registrations().Update(ctx.Context(), regID, input)
	if updateErr != nil {
		return nil, mapError(updateErr)
	}

	view := newRegistrationView(reg)
	return &view, nil
}

func (a *ForgeAPI) deleteRegistration(ctx forge.Context, req *DeleteRegistrationForgeRequest) (*registrationView, error) {
	regID, err := id.ParseWebhookID(req.WebhookID)
	if err != nil {
		return nil, forge.BadRequest("invalid webhook ID")
	}

	if deleteErr := a.inbox.Registrations().Delete(ctx.Context(), regID); deleteErr != nil {
		return nil, mapError(deleteErr)
	}

	err = ctx.NoContent(http.StatusNoContent)
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.NoContent.
	return nil, nil
}

func (a *ForgeAPI) pauseRegistration(ctx forge.Context, req *RegistrationActionForgeRequest) (*registrationView, error) {
	return a.setStatus(ctx, req.WebhookID, registration.StatusPaused)
}

func (a *ForgeAPI) resumeRegistration(ctx forge.Context, req *RegistrationActionForgeRequest) (*registrationView, error) {
	return a.setStatus(ctx, req.WebhookID, registration.StatusActive)
}

func (a *ForgeAPI) setStatus(ctx forge.Context, webhookID string, status registration.Status) (*registrationView, error) {
	regID, err := id.ParseWebhookID(webhookID)
	if err != nil {
		return nil, forge.BadRequest("invalid webhook ID")
	}

	if _, setErr := a.inbox.Registrations().SetStatus(ctx.Context(), regID, status); setErr != nil {
		return nil, mapError(setErr)
	}

	err = ctx.NoContent(http.StatusNoContent)
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.NoContent.
	return nil, nil
}

func (a *ForgeAPI) rotateSecret(ctx forge.Context, req *RegistrationActionForgeRequest) (*SecretForgeResponse, error) {
	regID, err := id.ParseWebhookID(req.WebhookID)
	if err != nil {
		return nil, forge.BadRequest("invalid webhook ID")
	}

	newSecret, rotateErr := a.inbox.Registrations().RotateSecret(ctx.Context(), regID)
	if rotateErr != nil {
		return nil, mapError(rotateErr)
	}

	return &SecretForgeResponse{Secret: newSecret}, nil
}

func (a *ForgeAPI) sendTestEvent(ctx forge.Context, req *RegistrationActionForgeRequest) (*inbox.ReceiveResult, error) {
	regID, err := id.ParseWebhookID(req.WebhookID)
	if err != nil {
		return nil, forge.BadRequest("invalid webhook ID")
	}

	res := a.inbox.SendTestEvent(ctx.Context(), regID)
	if res.Message == "Webhook not found" {
		return nil, forge.NotFound(res.Message)
	}

	return res, nil
}

// ---------------------------------------------------------------------------
// Event routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerEventRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("events"))

	if err := g.GET("/registrations/:webhookId/events", a.listEvents,
		forge.WithSummary("List events"),
		forge.WithDescription("Returns a webhook's events, most recent first, optionally restricted to pending."),
		forge.WithOperationID("listEvents"),
		forge.WithRequestSchema(ListEventsForgeRequest{}),
		forge.WithListResponse(event.Event{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listEvents route", forge.Error(err))
	}

	if err := g.GET("/registrations/:webhookId/events/:eventId", a.getEvent,
		forge.WithSummary("Get event"),
		forge.WithDescription("Returns details of a specific event."),
		forge.WithOperationID("getEvent"),
		forge.WithResponseSchema(http.StatusOK, "Event details", event.Event{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getEvent route", forge.Error(err))
	}
}

func (a *ForgeAPI) listEvents(ctx forge.Context, req *ListEventsForgeRequest) ([]*event.Event, error) {
	regID, err := id.ParseWebhookID(req.WebhookID)
	if err != nil {
		return nil, forge.BadRequest("invalid webhook ID")
	}

	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	opts := event.ListOpts{
		Limit:       limit,
		PendingOnly: req.Pending == "true",
	}

	events, listErr := a.inbox.ListEvents(ctx.Context(), regID, opts)
	if listErr != nil {
		return nil, mapError(listErr)
	}

	return events, nil
}

func (a *ForgeAPI) getEvent(ctx forge.Context, req *GetEventForgeRequest) (*event.Event, error) {
	regID, err := id.ParseWebhookID(req.WebhookID)
	if err != nil {
		return nil, forge.BadRequest("invalid webhook ID")
	}

	evtID, err := id.ParseEventID(req.EventID)
	if err != nil {
		return nil, forge.BadRequest("invalid event ID")
	}

	evt, getErr := a.inbox.Store().LoadEvent(ctx.Context(), regID, evtID)
	if getErr != nil {
		return nil, mapError(getErr)
	}

	return evt, nil
}

// ---------------------------------------------------------------------------
// Injection routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerInjectionRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("injection"))

	if err := g.GET("/injection/pending", a.pendingInjection,
		forge.WithSummary("Pending injection batch"),
		forge.WithDescription("Returns the next batch of pending events across active webhooks, oldest first, with acknowledgement refs and a rendered digest."),
		forge.WithOperationID("pendingInjection"),
		forge.WithResponseSchema(http.StatusOK, "Pending batch", InjectionBatchForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register pendingInjection route", forge.Error(err))
	}

	if err := g.POST("/injection/ack", a.ackInjection,
		forge.WithSummary("Acknowledge injection"),
		forge.WithDescription("Marks the referenced events as injected so they leave the pending queue."),
		forge.WithOperationID("ackInjection"),
		forge.WithRequestSchema(AckInjectionForgeRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register ackInjection route", forge.Error(err))
	}
}

func (a *ForgeAPI) pendingInjection(ctx forge.Context, _ *PendingInjectionForgeRequest) (*InjectionBatchForgeResponse, error) {
	events, err := a.inbox.GetPendingForInjection(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}
	if events == nil {
		events = []*event.Event{}
	}

	return &InjectionBatchForgeResponse{
		Events: events,
		Refs:   inbox.Refs(events),
		Digest: inbox.Digest(events),
	}, nil
}

func (a *ForgeAPI) ackInjection(ctx forge.Context, req *AckInjectionForgeRequest) (*InjectionBatchForgeResponse, error) {
	if err := a.inbox.MarkInjected(ctx.Context(), req.Events); err != nil {
		return nil, mapError(err)
	}

	err := ctx.NoContent(http.StatusNoContent)
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.NoContent.
	return nil, nil
}

// ---------------------------------------------------------------------------
// Delivery routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerDeliveryRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("deliveries"))

	if err := g.GET("/registrations/:webhookId/deliveries", a.listDeliveries,
		forge.WithSummary("List deliveries"),
		forge.WithDescription("Returns the receipt audit trail for a specific webhook, newest first."),
		forge.WithOperationID("listDeliveries"),
		forge.WithRequestSchema(ListDeliveriesForgeRequest{}),
		forge.WithListResponse(delivery.Delivery{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listDeliveries route", forge.Error(err))
	}
}

func (a *ForgeAPI) listDeliveries(ctx forge.Context, req *ListDeliveriesForgeRequest) ([]*delivery.Delivery, error) {
	regID, err := id.ParseWebhookID(req.WebhookID)
	if err != nil {
		return nil, forge.BadRequest("invalid webhook ID")
	}

	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	deliveries, listErr := a.inbox.Store().ListDeliveries(ctx.Context(), regID, limit)
	if listErr != nil {
		return nil, mapError(listErr)
	}

	return deliveries, nil
}

// ---------------------------------------------------------------------------
// Stats routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerStatsRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("stats"))

	if err := g.GET("/stats", a.getStats,
		forge.WithSummary("Inbox statistics"),
		forge.WithDescription("Returns registration counts by status plus total and pending event counts."),
		forge.WithOperationID("getStats"),
		forge.WithResponseSchema(http.StatusOK, "Inbox statistics", inbox.Stats{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getStats route", forge.Error(err))
	}
}

func (a *ForgeAPI) getStats(ctx forge.Context, _ *StatsForgeRequest) (*inbox.Stats, error) {
	st, err := a.inbox.Stats(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}

	return st, nil
}
