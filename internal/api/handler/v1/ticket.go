package v1

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1/response"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

type TicketService interface {
	Get(ctx context.Context, caller domain.Identity, ticketID string) (domain.Ticket, error)
}

type FileService interface {
	Download(ctx context.Context, caller domain.Identity, fileID string) (domain.Blob, []byte, error)
}

// DocumentHandler serves tickets and stored files.
type DocumentHandler struct {
	tickets TicketService
	files   FileService
	uSvc    UserService
}

func NewDocumentHandler(tickets TicketService, files FileService, uSvc UserService) *DocumentHandler {
	return &DocumentHandler{
		tickets: tickets,
		files:   files,
		uSvc:    uSvc,
	}
}

// HandleGetTicket godoc
// @Summary      Get a ticket with its QR code
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path      string  true  "Ticket ID"
// @Success      200       {object}  domain.Ticket
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Router       /tickets/{ticketID} [get]
// @Security     BearerAuth
func (h *DocumentHandler) HandleGetTicket(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ticket, err := h.tickets.Get(ctx.Request.Context(), user.Identity(), ctx.Param("ticketID"))
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleGetTicket -> h.tickets.Get -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, ticket)
}

// HandleDownloadFile godoc
// @Summary      Download an uploaded file
// @Tags         files
// @Produce      octet-stream
// @Param        fileID  path      string  true  "File ID"
// @Success      200     {file}    file
// @Failure      403     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Router       /files/{fileID} [get]
// @Security     BearerAuth
func (h *DocumentHandler) HandleDownloadFile(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	blob, data, err := h.files.Download(ctx.Request.Context(), user.Identity(), ctx.Param("fileID"))
	if err != nil {
		renderErr(ctx, fmt.Errorf("HandleDownloadFile -> h.files.Download -> %w", err))
		return
	}

	ctx.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": blob.Name}))
	ctx.Data(http.StatusOK, blob.MimeType, data)
}
