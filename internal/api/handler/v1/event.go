package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1/request"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1/response"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/service"
)

type EventService interface {
	Create(ctx context.Context, caller domain.Identity, ev domain.Event) (domain.Event, error)
	Update(ctx context.Context, caller domain.Identity, eventID uint, patch domain.EventPatch) (domain.Event, error)
	Delete(ctx context.Context, caller domain.Identity, eventID uint) error
	Publish(ctx context.Context, caller domain.Identity, eventID uint) (domain.Event, error)
	Start(ctx context.Context, caller domain.Identity, eventID uint) (domain.Event, error)
	Close(ctx context.Context, caller domain.Identity, eventID uint) (domain.Event, error)
	Complete(ctx context.Context, caller domain.Identity, eventID uint) (domain.Event, error)
	List(ctx context.Context, caller domain.Identity, q service.EventQuery) ([]domain.Event, error)
	Details(ctx context.Context, caller domain.Identity, eventID uint) (service.EventDetails, error)
}

type transitionFunc func(ctx context.Context, caller domain.Identity, eventID uint) (domain.Event, error)

type EventHandler struct {
	svc  EventService
	uSvc UserService
}

func NewEventHandler(svc EventService, uSvc UserService) *EventHandler {
	return &EventHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleCreateEvent godoc
// @Summary      Create a draft event
// @Description  Creates an event in DRAFT. Only organizers can create events.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateEventRequest  true  "Event details"
// @Success      201    {object}  domain.Event
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /events [post]
// @Security     BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.Create(ctx.Request.Context(), user.Identity(), req.ToEvent())
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleCreateEvent -> h.svc.Create -> %w", err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleUpdateEvent godoc
// @Summary      Update an event
// @Description  Partial update. Which fields may change depends on the event status.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                         true  "Event ID"
// @Param        input    body      request.UpdateEventRequest  true  "Fields to change"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /events/{eventID} [patch]
// @Security     BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := parseID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.svc.Update(ctx.Request.Context(), user.Identity(), eventID, req.ToPatch())
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleUpdateEvent -> h.svc.Update -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleDeleteEvent godoc
// @Summary      Delete a draft event
// @Tags         events
// @Param        eventID  path  int  true  "Event ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /events/{eventID} [delete]
// @Security     BearerAuth
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := parseID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), user.Identity(), eventID); err != nil {
		renderErr(ctx, fmt.Errorf("HandleDeleteEvent -> h.svc.Delete -> %w", err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandlePublishEvent godoc
// @Summary      Publish a draft event
// @Description  Announces the event and moves it to PUBLISHED. A failed announcement leaves it in DRAFT.
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {object}  domain.Event
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      502      {object}  response.Err
// @Router       /events/{eventID}/publish [post]
// @Security     BearerAuth
func (h *EventHandler) HandlePublishEvent(ctx *gin.Context) {
	h.transition(ctx, "HandlePublishEvent", h.svc.Publish)
}

// HandleStartEvent godoc
// @Summary      Start a published event
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {object}  domain.Event
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /events/{eventID}/start [post]
// @Security     BearerAuth
func (h *EventHandler) HandleStartEvent(ctx *gin.Context) {
	h.transition(ctx, "HandleStartEvent", h.svc.Start)
}

// HandleCloseEvent godoc
// @Summary      Close an event
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {object}  domain.Event
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /events/{eventID}/close [post]
// @Security     BearerAuth
func (h *EventHandler) HandleCloseEvent(ctx *gin.Context) {
	h.transition(ctx, "HandleCloseEvent", h.svc.Close)
}

// HandleCompleteEvent godoc
// @Summary      Complete an event
// @Description  Marks the event and its registrations as COMPLETED.
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {object}  domain.Event
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /events/{eventID}/complete [post]
// @Security     BearerAuth
func (h *EventHandler) HandleCompleteEvent(ctx *gin.Context) {
	h.transition(ctx, "HandleCompleteEvent", h.svc.Complete)
}

func (h *EventHandler) transition(ctx *gin.Context, op string, fn transitionFunc) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := parseID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ev, err := fn(ctx.Request.Context(), user.Identity(), eventID)
	if err != nil {
		renderErr(ctx, fmt.Errorf("%s -> %w", op, err))
		return
	}

	ctx.JSON(http.StatusOK, ev)
}

// HandleListEvents godoc
// @Summary      List events
// @Description  Lists visible events. Organizers see their drafts with mine=true. q ranks by relevance.
// @Tags         events
// @Produce      json
// @Param        q       query     string  false  "Free-text query"
// @Param        type    query     string  false  "NORMAL or MERCHANDISE"
// @Param        status  query     string  false  "Event status"
// @Param        mine    query     bool    false  "Only the caller's events"
// @Success      200     {array}   domain.Event
// @Failure      400     {object}  response.Err
// @Router       /events [get]
// @Security     BearerAuth
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var q request.ListEventsQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := q.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	events, err := h.svc.List(ctx.Request.Context(), user.Identity(), service.EventQuery{
		Query:  q.Query,
		Type:   q.Type,
		Status: q.Status,
		Mine:   q.Mine,
	})
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleListEvents -> h.svc.List -> %w", err))
		return
	}
	if events == nil {
		events = []domain.Event{}
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get an event
// @Description  Returns the event with the caller's registration state and the reasons registration is blocked.
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {object}  service.EventDetails
// @Failure      404      {object}  response.Err
// @Router       /events/{eventID} [get]
// @Security     BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := parseID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	details, err := h.svc.Details(ctx.Request.Context(), user.Identity(), eventID)
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleGetEvent -> h.svc.Details -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, details)
}
