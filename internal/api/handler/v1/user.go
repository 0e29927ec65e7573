package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1/request"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1/response"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
	CreateOrganizer(ctx context.Context, caller domain.Identity, user domain.User) (domain.User, error)
	ListOrganizers(ctx context.Context, caller domain.Identity) ([]domain.User, error)
	SetOrganizerDisabled(ctx context.Context, caller domain.Identity, id uint, disabled bool) (domain.User, error)
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

// HandleGetMe godoc
// @Summary      Get the authenticated user
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Router       /users/me [get]
// @Security     BearerAuth
func (h *UserHandler) HandleGetMe(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleCreateOrganizer godoc
// @Summary      Create an organizer account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateOrganizerRequest  true  "organizer account"
// @Success      201      {object}  domain.User
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /admin/organizers [post]
// @Security     BearerAuth
func (h *UserHandler) HandleCreateOrganizer(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateOrganizerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.CreateOrganizer(ctx.Request.Context(), user.Identity(), req.ToUser())
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleCreateOrganizer -> h.svc.CreateOrganizer -> %w", err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListOrganizers godoc
// @Summary      List organizer accounts
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.User
// @Failure      403  {object}  response.Err
// @Router       /admin/organizers [get]
// @Security     BearerAuth
func (h *UserHandler) HandleListOrganizers(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	users, err := h.svc.ListOrganizers(ctx.Request.Context(), user.Identity())
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleListOrganizers -> h.svc.ListOrganizers -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// HandleSetOrganizerDisabled godoc
// @Summary      Enable or disable an organizer
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        userID   path      int                         true  "Organizer ID"
// @Param        request  body      request.SetDisabledRequest  true  "disabled flag"
// @Success      200      {object}  domain.User
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /admin/organizers/{userID} [patch]
// @Security     BearerAuth
func (h *UserHandler) HandleSetOrganizerDisabled(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	organizerID, respErr := parseID(ctx, "userID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.SetDisabledRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.svc.SetOrganizerDisabled(ctx.Request.Context(), user.Identity(), organizerID, *req.Disabled)
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleSetOrganizerDisabled -> h.svc.SetOrganizerDisabled -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, updated)
}
