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

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	Register(context.Context, cqrs.RegisterUserCommand) (*models.User, error)
	UpdateProfile(context.Context, cqrs.UpdateProfileCommand) (*models.User, error)
	DeleteUser(context.Context, cqrs.DeleteUserCommand) error
	ToggleFollow(context.Context, cqrs.ToggleFollowCommand) (bool, error)
	TogglePremium(context.Context, cqrs.TogglePremiumCommand) (bool, error)
	JoinGroup(context.Context, cqrs.JoinGroupCommand) ([]models.Group, error)
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(context.Context, cqrs.GetUserQuery) (*models.User, error)
	FindByName(context.Context, cqrs.FindByNameQuery) ([]models.UserView, error)
	ListUsers(context.Context) ([]models.UserView, error)
	ListFollowCandidates(context.Context, cqrs.ListFollowCandidatesQuery) ([]models.FollowCandidate, error)
	ListContacts(context.Context, cqrs.ListContactsQuery) ([]models.UserView, error)
	ListRewards(context.Context, cqrs.ListRewardsQuery) ([]models.Reward, error)
	ListActivities(context.Context, cqrs.ListActivitiesQuery) ([]models.Activity, error)
	ListUserGroups(context.Context, cqrs.ListUserGroupsQuery) ([]models.Group, error)
}

// UserHandler routes requests to the command or query service as appropriate.
// Routes under /v1/me act on the authenticated user.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

type FollowResponse struct {
	Following bool `json:"following"`
}

type PremiumResponse struct {
	IsPremium bool `json:"isPremium"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req cqrs.UserDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.commands.Register(c.Request.Context(), cqrs.RegisterUserCommand{UserDetails: req})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ListUsers lists every user, or only exact name matches when both names and
// surnames are given.
func (h *UserHandler) ListUsers(c *gin.Context) {
	names, surnames := c.Query("names"), c.Query("surnames")
	if names != "" || surnames != "" {
		users, err := h.queries.FindByName(c.Request.Context(), cqrs.FindByNameQuery{Names: names, Surnames: surnames})
		if err != nil {
			middleware.RespondWithAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
		return
	}

	users, err := h.queries.ListUsers(c.Request.Context())
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID := c.Param("userId")
	if !utils.ValidateUserID(userID) {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid user ID format")
		return
	}
	h.respondWithUser(c, userID)
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	h.respondWithUser(c, userID)
}

func (h *UserHandler) respondWithUser(c *gin.Context, userID string) {
	user, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req cqrs.UserDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.commands.UpdateProfile(c.Request.Context(), cqrs.UpdateProfileCommand{
		UserID:      userID,
		UserDetails: req,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteCurrentUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.commands.DeleteUser(c.Request.Context(), cqrs.DeleteUserCommand{UserID: userID}); err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) ToggleFollow(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	targetID := c.Param("userId")
	if !utils.ValidateUserID(targetID) {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	following, err := h.commands.ToggleFollow(c.Request.Context(), cqrs.ToggleFollowCommand{
		UserID:   userID,
		TargetID: targetID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, FollowResponse{Following: following})
}

func (h *UserHandler) TogglePremium(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	premium, err := h.commands.TogglePremium(c.Request.Context(), cqrs.TogglePremiumCommand{UserID: userID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, PremiumResponse{IsPremium: premium})
}

func (h *UserHandler) JoinGroup(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	groupID := c.Param("groupId")
	if !utils.ValidateGroupID(groupID) {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid group ID format")
		return
	}

	groups, err := h.commands.JoinGroup(c.Request.Context(), cqrs.JoinGroupCommand{UserID: userID, GroupID: groupID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

func (h *UserHandler) ListContacts(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	contacts, err := h.queries.ListContacts(c.Request.Context(), cqrs.ListContactsQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *UserHandler) ListFollowCandidates(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	candidates, err := h.queries.ListFollowCandidates(c.Request.Context(), cqrs.ListFollowCandidatesQuery{RequestingUserID: userID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}

func (h *UserHandler) ListGroups(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	groups, err := h.queries.ListUserGroups(c.Request.Context(), cqrs.ListUserGroupsQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *UserHandler) ListRewards(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rewards, err := h.queries.ListRewards(c.Request.Context(), cqrs.ListRewardsQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, rewards)
}

func (h *UserHandler) ListActivities(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	activities, err := h.queries.ListActivities(c.Request.Context(), cqrs.ListActivitiesQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}

// currentUser reads the id set by the auth middleware and answers 401 itself
// when it is missing.
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return userID, true
}
