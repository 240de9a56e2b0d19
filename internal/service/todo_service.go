package service

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hearthkeep/hearthkeep/internal/middleware"
	"github.com/hearthkeep/hearthkeep/internal/models"
	"github.com/hearthkeep/hearthkeep/internal/storage"
)

// ToDoService handles personal and group to-do lists. The two differ only
// in the store they hit and the key they use, so every handler pair shares
// one implementation.
type ToDoService struct {
	userLists  storage.ToDoListStore
	groupLists storage.ToDoListStore
}

// NewToDoService creates a ToDoService.
func NewToDoService(userLists, groupLists storage.ToDoListStore) *ToDoService {
	return &ToDoService{userLists: userLists, groupLists: groupLists}
}

// Register mounts the to-do routes on an authenticated group.
func (s *ToDoService) Register(g *echo.Group) {
	g.GET("/todos", s.personal(s.getList))
	g.POST("/todos/tasks", s.personal(s.addTask))
	g.POST("/todos/tasks/:task/complete", s.personal(s.completeTask))
	g.DELETE("/todos/tasks/:task", s.personal(s.removeTask))

	g.GET("/groups/:name/todos", s.group(s.getList))
	g.POST("/groups/:name/todos/tasks", s.group(s.addTask))
	g.POST("/groups/:name/todos/tasks/:task/complete", s.group(s.completeTask))
	g.DELETE("/groups/:name/todos/tasks/:task", s.group(s.removeTask))
}

type listHandler func(c echo.Context, store storage.ToDoListStore, key string) error

func (s *ToDoService) personal(h listHandler) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h(c, s.userLists, middleware.Username(c))
	}
}

func (s *ToDoService) group(h listHandler) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h(c, s.groupLists, c.Param("name"))
	}
}

func (s *ToDoService) getList(c echo.Context, store storage.ToDoListStore, key string) error {
	list, err := store.Load(c.Request().Context(), key)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

type addTaskRequest struct {
	TaskName    string  `json:"taskName"`
	DateTime    *string `json:"dateTime"`
	Description *string `json:"description"`
	Priority    string  `json:"priority"`
}

func (s *ToDoService) addTask(c echo.Context, store storage.ToDoListStore, key string) error {
	var req addTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	task, err := models.NewTask(req.TaskName)
	if err != nil {
		return httpError(err)
	}
	if err := task.SetPriority(models.Priority(req.Priority)); err != nil {
		return httpError(err)
	}
	task.SetDescription(req.Description)
	if req.DateTime != nil {
		due, err := time.Parse(time.RFC3339, *req.DateTime)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "dateTime must be RFC 3339")
		}
		task.SetDueDate(&due)
	}

	return s.mutate(c.Request().Context(), c, store, key, func(list *models.ToDoList) error {
		list.AddTask(*task)
		return nil
	}, http.StatusCreated)
}

func (s *ToDoService) completeTask(c echo.Context, store storage.ToDoListStore, key string) error {
	name := c.Param("task")
	return s.mutate(c.Request().Context(), c, store, key, func(list *models.ToDoList) error {
		if !list.CompleteTask(name) {
			return echo.NewHTTPError(http.StatusNotFound, "no such task")
		}
		return nil
	}, http.StatusOK)
}

func (s *ToDoService) removeTask(c echo.Context, store storage.ToDoListStore, key string) error {
	name := c.Param("task")
	return s.mutate(c.Request().Context(), c, store, key, func(list *models.ToDoList) error {
		if !list.RemoveTask(name) {
			return echo.NewHTTPError(http.StatusNotFound, "no such task")
		}
		return nil
	}, http.StatusOK)
}

// mutate is the shared load-mutate-save cycle. Not atomic across callers;
// the last write for a key wins, per the store contract.
func (s *ToDoService) mutate(ctx context.Context, c echo.Context, store storage.ToDoListStore, key string, fn func(*models.ToDoList) error, okStatus int) error {
	list, err := store.Load(ctx, key)
	if err != nil {
		return httpError(err)
	}
	if err := fn(list); err != nil {
		return err
	}
	if err := store.Save(ctx, key, list); err != nil {
		return httpError(err)
	}
	return c.JSON(okStatus, list)
}
