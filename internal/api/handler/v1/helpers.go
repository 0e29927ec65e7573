package v1

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/handler/v1/response"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/api/middleware"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

// getUserFromContext loads the account behind the verified token. A token
// whose account was deleted or disabled no longer authenticates.
func getUserFromContext(ctx *gin.Context, uSvc UserService) (domain.User, *response.Err) {
	userID := ctx.GetUint(middleware.ContextKeyUserID)
	if userID == 0 {
		return domain.User{}, response.ErrUnauthenticated(errors.New("missing user in request context"))
	}

	user, err := uSvc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, response.ErrUnauthenticated(fmt.Errorf("user %d no longer exists", userID))
		}

		return domain.User{}, response.FromDomain(fmt.Errorf("getUserFromContext -> uSvc.GetUser -> %w", err))
	}

	return user, nil
}

func parseID(ctx *gin.Context, param string) (uint, *response.Err) {
	id, err := strconv.ParseUint(ctx.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid %s: %q", param, ctx.Param(param)))
	}

	return uint(id), nil
}

func renderErr(ctx *gin.Context, err error) {
	response.RenderErr(ctx, response.FromDomain(err))
}
