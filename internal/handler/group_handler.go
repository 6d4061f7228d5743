package handler

import (
	"context"
	"net/http"

	"github.com/ggonzalesd/UniTable/shared/cqrs"
	"github.com/ggonzalesd/UniTable/shared/middleware"
	"github.com/ggonzalesd/UniTable/shared/models"
	"github.com/ggonzalesd/UniTable/shared/utils"
	"github.com/gin-gonic/gin"
)

type GroupCommander interface {
	CreateGroup(context.Context, cqrs.CreateGroupCommand) (*models.Group, error)
}

type GroupQuerier interface {
	ListGroups(context.Context) ([]models.Group, error)
	ListGroupMembers(context.Context, cqrs.ListGroupMembersQuery) ([]models.UserView, error)
}

type GroupHandler struct {
	commands GroupCommander
	queries  GroupQuerier
}

func NewGroupHandler(commands GroupCommander, queries GroupQuerier) *GroupHandler {
	return &GroupHandler{commands: commands, queries: queries}
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req cqrs.CreateGroupCommand
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	group, err := h.commands.CreateGroup(c.Request.Context(), req)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.queries.ListGroups(c.Request.Context())
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *GroupHandler) ListMembers(c *gin.Context) {
	groupID := c.Param("groupId")
	if !utils.ValidateGroupID(groupID) {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid group ID format")
		return
	}

	members, err := h.queries.ListGroupMembers(c.Request.Context(), cqrs.ListGroupMembersQuery{GroupID: groupID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}
