package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1/request"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1/response"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/service"
)

type RegistrationService interface {
	Register(ctx context.Context, caller domain.Identity, eventID uint, in service.RegisterInput) (service.Admission, error)
	ListForEvent(ctx context.Context, caller domain.Identity, eventID uint) ([]domain.Registration, error)
	ListMine(ctx context.Context, caller domain.Identity) ([]service.Admission, error)
}

type RegistrationHandler struct {
	svc       RegistrationService
	uSvc      UserService
	maxUpload int64
}

func NewRegistrationHandler(svc RegistrationService, uSvc UserService, maxUpload int64) *RegistrationHandler {
	return &RegistrationHandler{
		svc:       svc,
		uSvc:      uSvc,
		maxUpload: maxUpload,
	}
}

// HandleRegister godoc
// @Summary      Register for a NORMAL event
// @Description  JSON body, or multipart with a "responses" JSON field, "team_name" and files named files[<fieldId>].
// @Tags         registrations
// @Accept       json,mpfd
// @Produce      json
// @Param        eventID  path      int                      true   "Event ID"
// @Param        input    body      request.RegisterRequest  false  "Form responses"
// @Success      201      {object}  service.Admission
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      413      {object}  response.Err
// @Failure      502      {object}  response.Err
// @Router       /events/{eventID}/register [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleRegister(ctx *gin.Context) {
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

	in, respErr := h.bindRegistration(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	admission, err := h.svc.Register(ctx.Request.Context(), user.Identity(), eventID, in)
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleRegister -> h.svc.Register -> %w", err))
		return
	}

	ctx.JSON(http.StatusCreated, admission)
}

func (h *RegistrationHandler) bindRegistration(ctx *gin.Context) (service.RegisterInput, *response.Err) {
	var req request.RegisterRequest
	var files map[string]domain.BlobUpload

	if isMultipart(ctx) {
		form, respErr := parseMultipart(ctx, h.maxUpload)
		if respErr != nil {
			return service.RegisterInput{}, respErr
		}

		req.TeamName = formValue(form, "team_name")
		if raw := formValue(form, "responses"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Responses); err != nil {
				return service.RegisterInput{}, response.ErrBadRequest(fmt.Errorf("responses: %w", err))
			}
		}

		var err error
		if files, err = fileFields(form); err != nil {
			return service.RegisterInput{}, response.ErrBadRequest(err)
		}
	} else if ctx.Request.ContentLength != 0 {
		limitBody(ctx, h.maxUpload)
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return service.RegisterInput{}, bodyErr(err, h.maxUpload)
		}
	}

	if err := req.Validate(); err != nil {
		return service.RegisterInput{}, response.ErrBadRequest(err)
	}

	return service.RegisterInput{
		TeamName:  req.TeamName,
		Responses: req.Responses,
		Files:     files,
	}, nil
}

// HandleListEventRegistrations godoc
// @Summary      List the registrations of an event
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      int  true  "Event ID"
// @Success      200      {array}   domain.Registration
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /events/{eventID}/registrations [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleListEventRegistrations(ctx *gin.Context) {
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

	regs, err := h.svc.ListForEvent(ctx.Request.Context(), user.Identity(), eventID)
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleListEventRegistrations -> h.svc.ListForEvent -> %w", err))
		return
	}
	if regs == nil {
		regs = []domain.Registration{}
	}

	ctx.JSON(http.StatusOK, regs)
}

// HandleListMyRegistrations godoc
// @Summary      List the caller's registrations with their tickets
// @Tags         registrations
// @Produce      json
// @Success      200  {array}   service.Admission
// @Failure      401  {object}  response.Err
// @Router       /registrations/me [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleListMyRegistrations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	admissions, err := h.svc.ListMine(ctx.Request.Context(), user.Identity())
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleListMyRegistrations -> h.svc.ListMine -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, admissions)
}
