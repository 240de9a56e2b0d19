package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hearthkeep/hearthkeep/internal/coordinator"
	"github.com/hearthkeep/hearthkeep/internal/middleware"
	"github.com/hearthkeep/hearthkeep/internal/models"
	"github.com/hearthkeep/hearthkeep/internal/storage"
)

// GroupService handles group creation, lookup and membership.
type GroupService struct {
	coord  *coordinator.Coordinator
	users  storage.UserStore
	groups storage.GroupStore
}

// NewGroupService creates a GroupService.
func NewGroupService(coord *coordinator.Coordinator, users storage.UserStore, groups storage.GroupStore) *GroupService {
	return &GroupService{coord: coord, users: users, groups: groups}
}

// Register mounts the group routes on an authenticated group.
func (s *GroupService) Register(g *echo.Group) {
	g.POST("/groups", s.handleCreateGroup)
	g.GET("/groups", s.handleListMyGroups)
	g.GET("/groups/:name", s.handleGetGroup)
	g.POST("/groups/:name/members", s.handleJoinGroup)
	g.GET("/groups/:name/assignment", s.handleValidateAssignment)
}

type createGroupRequest struct {
	GroupName string `json:"groupName"`
}

type groupResponse struct {
	GroupName     string   `json:"groupName"`
	Users         []string `json:"users"`
	NumberOfUsers int      `json:"numberOfUsers"`
}

func toGroupResponse(g *models.UserGroup) groupResponse {
	return groupResponse{
		GroupName:     g.GroupName,
		Users:         g.Users,
		NumberOfUsers: len(g.Users),
	}
}

func (s *GroupService) handleCreateGroup(c echo.Context) error {
	var req createGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	ctx := c.Request().Context()
	username := middleware.Username(c)

	user, err := s.users.Load(ctx, username)
	if err != nil {
		return httpError(err)
	}

	if err := s.coord.CreateGroup(ctx, user, req.GroupName); err != nil {
		var partial *coordinator.PartialError
		if errors.As(err, &partial) {
			// Earlier writes are on disk; surface an operational failure
			// and leave the partial state to heal on read.
			slog.Error("group creation persisted partially",
				"group", req.GroupName,
				"completed", partial.Completed,
				"failed_step", partial.Failed,
				"error", partial.Cause,
			)
			return echo.NewHTTPError(http.StatusInternalServerError, "group creation incomplete")
		}
		return httpError(err)
	}

	group, err := s.groups.Load(ctx, req.GroupName)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toGroupResponse(group))
}

func (s *GroupService) handleListMyGroups(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := s.users.Load(ctx, middleware.Username(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"groups": user.Groups})
}

func (s *GroupService) handleGetGroup(c echo.Context) error {
	group, err := s.groups.Load(c.Request().Context(), c.Param("name"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toGroupResponse(group))
}

func (s *GroupService) handleJoinGroup(c echo.Context) error {
	ctx := c.Request().Context()
	groupName := c.Param("name")
	username := middleware.Username(c)

	user, err := s.users.Load(ctx, username)
	if err != nil {
		return httpError(err)
	}

	if err := s.coord.AssignUserToGroup(ctx, user, groupName); err != nil {
		var partial *coordinator.PartialError
		if errors.As(err, &partial) {
			slog.Error("group join persisted partially",
				"group", groupName,
				"username", username,
				"failed_step", partial.Failed,
				"error", partial.Cause,
			)
			return echo.NewHTTPError(http.StatusInternalServerError, "group join incomplete")
		}
		return httpError(err)
	}

	group, err := s.groups.Load(ctx, groupName)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toGroupResponse(group))
}

type assignmentResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// handleValidateAssignment pre-checks whether a user could join a group,
// without mutating anything. Callers use it before committing a join.
func (s *GroupService) handleValidateAssignment(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		username = middleware.Username(c)
	}

	reason, err := s.coord.ValidateAssignment(c.Request().Context(), username, c.Param("name"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, assignmentResponse{Valid: reason == "", Reason: reason})
}
