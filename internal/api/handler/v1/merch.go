package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1/request"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1/response"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/service"
)

var errMissingProof = errors.New("proof: a file part named \"proof\" is required")

type MerchService interface {
	Purchase(ctx context.Context, caller domain.Identity, eventID uint, in service.OrderInput) (service.Admission, error)
	PlaceOrder(ctx context.Context, caller domain.Identity, eventID uint, in service.OrderInput) (domain.Registration, error)
	SubmitProof(ctx context.Context, caller domain.Identity, registrationID uint, proof domain.BlobUpload) (domain.Registration, error)
	Review(ctx context.Context, caller domain.Identity, registrationID uint, in service.ReviewInput) (service.Admission, error)
	ListOrders(ctx context.Context, caller domain.Identity, eventID uint, status domain.PaymentStatus) ([]domain.Registration, error)
}

type MerchHandler struct {
	svc       MerchService
	uSvc      UserService
	maxUpload int64
}

func NewMerchHandler(svc MerchService, uSvc UserService, maxUpload int64) *MerchHandler {
	return &MerchHandler{
		svc:       svc,
		uSvc:      uSvc,
		maxUpload: maxUpload,
	}
}

// HandlePurchase godoc
// @Summary      Buy merchandise
// @Description  Reserves stock immediately, issues the ticket and sends the confirmation.
// @Tags         merchandise
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                   true  "Event ID"
// @Param        input    body      request.OrderRequest  true  "Variant and quantity"
// @Success      201      {object}  service.Admission
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      502      {object}  response.Err
// @Router       /events/{eventID}/purchase [post]
// @Security     BearerAuth
func (h *MerchHandler) HandlePurchase(ctx *gin.Context) {
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

	var req request.OrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	admission, err := h.svc.Purchase(ctx.Request.Context(), user.Identity(), eventID, orderInput(req))
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandlePurchase -> h.svc.Purchase -> %w", err))
		return
	}

	ctx.JSON(http.StatusCreated, admission)
}

// HandlePlaceOrder godoc
// @Summary      Order merchandise for payment approval
// @Description  Stock is taken when the order is approved. Multipart requests may attach the payment proof as "proof".
// @Tags         merchandise
// @Accept       json,mpfd
// @Produce      json
// @Param        eventID  path      int                   true   "Event ID"
// @Param        input    body      request.OrderRequest  true   "Variant and quantity"
// @Success      201      {object}  domain.Registration
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      413      {object}  response.Err
// @Router       /events/{eventID}/orders [post]
// @Security     BearerAuth
func (h *MerchHandler) HandlePlaceOrder(ctx *gin.Context) {
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

	var proof *domain.BlobUpload
	if isMultipart(ctx) {
		form, respErr := parseMultipart(ctx, h.maxUpload)
		if respErr != nil {
			response.RenderErr(ctx, respErr)
			return
		}
		if headers := form.File["proof"]; len(headers) > 0 {
			upload, err := readUpload(headers[0])
			if err != nil {
				response.RenderErr(ctx, response.ErrBadRequest(err))
				return
			}
			proof = &upload
		}
	}

	var req request.OrderRequest
	if err := ctx.ShouldBind(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	in := orderInput(req)
	in.Proof = proof

	reg, err := h.svc.PlaceOrder(ctx.Request.Context(), user.Identity(), eventID, in)
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandlePlaceOrder -> h.svc.PlaceOrder -> %w", err))
		return
	}

	ctx.JSON(http.StatusCreated, reg)
}

// HandleSubmitProof godoc
// @Summary      Upload the payment proof of an order
// @Tags         merchandise
// @Accept       mpfd
// @Produce      json
// @Param        registrationID  path      int   true  "Registration ID"
// @Param        proof           formData  file  true  "Payment proof"
// @Success      200             {object}  domain.Registration
// @Failure      400             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      409             {object}  response.Err
// @Failure      413             {object}  response.Err
// @Router       /registrations/{registrationID}/payment-proof [post]
// @Security     BearerAuth
func (h *MerchHandler) HandleSubmitProof(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrationID, respErr := parseID(ctx, "registrationID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if !isMultipart(ctx) {
		response.RenderErr(ctx, response.ErrBadRequest(errMissingProof))
		return
	}
	form, respErr := parseMultipart(ctx, h.maxUpload)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	headers := form.File["proof"]
	if len(headers) == 0 {
		response.RenderErr(ctx, response.ErrBadRequest(errMissingProof))
		return
	}

	proof, err := readUpload(headers[0])
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.SubmitProof(ctx.Request.Context(), user.Identity(), registrationID, proof)
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleSubmitProof -> h.svc.SubmitProof -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

// HandleReview godoc
// @Summary      Approve or reject a merchandise order
// @Description  Approval takes the stock, issues the ticket and sends the confirmation.
// @Tags         merchandise
// @Accept       json
// @Produce      json
// @Param        registrationID  path      int                    true  "Registration ID"
// @Param        input           body      request.ReviewRequest  true  "Decision"
// @Success      200             {object}  service.Admission
// @Failure      400             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      409             {object}  response.Err
// @Failure      502             {object}  response.Err
// @Router       /registrations/{registrationID}/review [post]
// @Security     BearerAuth
func (h *MerchHandler) HandleReview(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrationID, respErr := parseID(ctx, "registrationID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	admission, err := h.svc.Review(ctx.Request.Context(), user.Identity(), registrationID, service.ReviewInput{
		Decision: req.Decision,
		Comment:  req.Comment,
	})
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleReview -> h.svc.Review -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, admission)
}

// HandleListOrders godoc
// @Summary      List the merchandise orders of an event
// @Tags         merchandise
// @Produce      json
// @Param        eventID        path      int     true   "Event ID"
// @Param        paymentStatus  query     string  false  "Payment status filter"
// @Success      200            {array}   domain.Registration
// @Failure      400            {object}  response.Err
// @Failure      403            {object}  response.Err
// @Router       /events/{eventID}/orders [get]
// @Security     BearerAuth
func (h *MerchHandler) HandleListOrders(ctx *gin.Context) {
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

	var q request.OrdersQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := q.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	orders, err := h.svc.ListOrders(ctx.Request.Context(), user.Identity(), eventID, q.PaymentStatus)
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleListOrders -> h.svc.ListOrders -> %w", err))
		return
	}
	if orders == nil {
		orders = []domain.Registration{}
	}

	ctx.JSON(http.StatusOK, orders)
}

func orderInput(req request.OrderRequest) service.OrderInput {
	return service.OrderInput{
		ItemID:    req.ItemID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	}
}
