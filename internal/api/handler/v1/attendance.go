package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1/request"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1/response"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/service"
)

type AttendanceService interface {
	Scan(ctx context.Context, caller domain.Identity, eventID uint, in service.ScanInput) (domain.Registration, error)
	Override(ctx context.Context, caller domain.Identity, eventID uint, in service.OverrideInput) (domain.Registration, error)
	Summary(ctx context.Context, caller domain.Identity, eventID uint, limit int) (domain.AttendanceSummary, error)
}

type AttendanceHandler struct {
	svc      AttendanceService
	uSvc     UserService
	hub      *LiveHub
	upgrader websocket.Upgrader
}

func NewAttendanceHandler(svc AttendanceService, uSvc UserService, hub *LiveHub, allowedOrigins []string) *AttendanceHandler {
	return &AttendanceHandler{
		svc:      svc,
		uSvc:     uSvc,
		hub:      hub,
		upgrader: newUpgrader(allowedOrigins),
	}
}

// HandleScan godoc
// @Summary      Scan a ticket at the door
// @Description  Admits a ticket holder once. Duplicates return 409 and every attempt is audited.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                  true  "Event ID"
// @Param        input    body      request.ScanRequest  true  "QR payload or ticket fields"
// @Success      200      {object}  domain.Registration
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /events/{eventID}/attendance/scan [post]
// @Security     BearerAuth
func (h *AttendanceHandler) HandleScan(ctx *gin.Context) {
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

	var req request.ScanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.Scan(ctx.Request.Context(), user.Identity(), eventID, service.ScanInput{
		QRPayload:      req.QRPayload,
		TicketID:       req.TicketID,
		RegistrationID: req.RegistrationID,
		ParticipantID:  req.ParticipantID,
		EventID:        req.EventID,
	})
	h.hub.Poke(eventID)
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleScan -> h.svc.Scan -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

// HandleOverride godoc
// @Summary      Set attendance by hand
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                      true  "Event ID"
// @Param        input    body      request.OverrideRequest  true  "Registration, attendance and reason"
// @Success      200      {object}  domain.Registration
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /events/{eventID}/attendance/override [post]
// @Security     BearerAuth
func (h *AttendanceHandler) HandleOverride(ctx *gin.Context) {
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

	var req request.OverrideRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.Override(ctx.Request.Context(), user.Identity(), eventID, service.OverrideInput{
		RegistrationID: req.RegistrationID,
		Attended:       *req.Attended,
		Reason:         req.Reason,
	})
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleOverride -> h.svc.Override -> %w", err))
		return
	}
	h.hub.Poke(eventID)

	ctx.JSON(http.StatusOK, reg)
}

// HandleSummary godoc
// @Summary      Attendance counts and recent audit entries
// @Tags         attendance
// @Produce      json
// @Param        eventID  path      int  true   "Event ID"
// @Param        limit    query     int  false  "Audit entries to return (default 20, max 100)"
// @Success      200      {object}  domain.AttendanceSummary
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Router       /events/{eventID}/attendance/summary [get]
// @Security     BearerAuth
func (h *AttendanceHandler) HandleSummary(ctx *gin.Context) {
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

	var q request.SummaryQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := q.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	summary, err := h.svc.Summary(ctx.Request.Context(), user.Identity(), eventID, q.Limit)
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleSummary -> h.svc.Summary -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, summary)
}

// HandleLive godoc
// @Summary      Live attendance summary over a websocket
// @Description  Pushes the summary on connect, after every scan or override, and periodically. Browsers pass the token as access_token.
// @Tags         attendance
// @Param        eventID       path   int     true   "Event ID"
// @Param        access_token  query  string  false  "JWT for clients that cannot set headers"
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Router       /events/{eventID}/attendance/live [get]
// @Security     BearerAuth
func (h *AttendanceHandler) HandleLive(ctx *gin.Context) {
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

	caller := user.Identity()
	summary := func(c context.Context) (domain.AttendanceSummary, error) {
		return h.svc.Summary(c, caller, eventID, 0)
	}

	// Permission is checked before the upgrade so failures get a JSON error.
	if _, err := summary(ctx.Request.Context()); err != nil {
		renderErr(ctx, fmt.Errorf("HandleLive -> h.svc.Summary -> %w", err))
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Uint("event_id", eventID), zap.Error(err))
		return
	}

	client := &liveClient{
		conn:    conn,
		eventID: eventID,
		poke:    make(chan struct{}, 1),
	}
	if !h.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump(h.hub.interval, summary)
	go client.readPump(h.hub)
}
