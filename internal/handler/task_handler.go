package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"taskhub/internal/middleware"
	"taskhub/internal/model"
	"taskhub/internal/notify"
	"taskhub/internal/query"
	"taskhub/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	Find(ctx context.Context, plan query.Plan) ([]model.Task, error)
	Save(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// TaskEvents mirrors task changes to connected clients.
type TaskEvents interface {
	Created(task *model.Task)
	Updated(task *model.Task)
	Deleted(id uuid.UUID)
}

type AssignmentNotifier interface {
	Notify(ctx context.Context, change notify.AssignmentChange) (*model.Notification, error)
}

type TaskHandler struct {
	tasks    TaskStore
	users    UserLookup
	events   TaskEvents
	notifier AssignmentNotifier
	now      func() time.Time
}

func NewTaskHandler(tasks TaskStore, users UserLookup, events TaskEvents, notifier AssignmentNotifier) *TaskHandler {
	return &TaskHandler{
		tasks:    tasks,
		users:    users,
		events:   events,
		notifier: notifier,
		now:      time.Now,
	}
}

// OptionalTime is a JSON field that can be absent, cleared with null or "",
// or set to an RFC 3339 timestamp.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil
	if isEmptyJSON(data) {
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	t = t.UTC()
	o.Value = &t
	return nil
}

// OptionalID is a JSON field that can be absent, cleared with null or "",
// or set to a uuid string.
type OptionalID struct {
	Set   bool
	Value *uuid.UUID
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil
	if isEmptyJSON(data) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	o.Value = &id
	return nil
}

func isEmptyJSON(data []byte) bool {
	s := strings.TrimSpace(string(data))
	return s == "null" || s == `""`
}

// CreateTaskRequest представляет запрос на создание задачи
type CreateTaskRequest struct {
	Title        string         `json:"title" binding:"required,max=100"`
	Description  string         `json:"description" binding:"required"`
	DueDate      OptionalTime   `json:"dueDate" swaggertype:"string" format:"date-time"`
	Priority     model.Priority `json:"priority" binding:"required,task_priority" swaggertype:"string"`
	Status       model.Status   `json:"status" binding:"omitempty,task_status" swaggertype:"string"`
	AssignedToID OptionalID     `json:"assignedToId" swaggertype:"string" format:"uuid"`
}

// UpdateTaskRequest представляет запрос на изменение задачи; отсутствующие поля не меняются
type UpdateTaskRequest struct {
	Title        *string         `json:"title" binding:"omitnil,min=1,max=100"`
	Description  *string         `json:"description" binding:"omitnil,min=1"`
	DueDate      OptionalTime    `json:"dueDate" swaggertype:"string" format:"date-time"`
	Priority     *model.Priority `json:"priority" binding:"omitnil,task_priority" swaggertype:"string"`
	Status       *model.Status   `json:"status" binding:"omitnil,task_status" swaggertype:"string"`
	AssignedToID OptionalID      `json:"assignedToId" swaggertype:"string" format:"uuid"`
}

// List godoc
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param priority query string false "Priority filter"
// @Param search query string false "Substring of title or description"
// @Param assignedToMe query string false "true to keep tasks assigned to the caller"
// @Param createdByMe query string false "true to keep tasks created by the caller"
// @Param overdue query string false "true to keep overdue, not completed tasks"
// @Param sortBy query string false "dueDate, createdAt or priority"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {array} model.Task
// @Failure 401 {object} ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	var params query.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	var actor *uuid.UUID
	if userID, ok := middleware.CurrentUserID(c); ok {
		actor = &userID
	}

	tasks, err := h.tasks.Find(c.Request.Context(), query.Build(params, actor, h.now().UTC()))
	if err != nil {
		respondServerError(c, "list tasks", err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// GetByID godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} model.Task
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	taskID, ok := parseID(c, "Invalid task ID format")
	if !ok {
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		h.respondTaskError(c, "get task", err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Create godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task"
// @Success 201 {object} model.Task
// @Failure 400 {object} ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	actorID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if !h.assigneeExists(c, req.AssignedToID.Value) {
		return
	}

	task := &model.Task{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate.Value,
		Priority:     req.Priority,
		Status:       req.Status,
		CreatorID:    actorID,
		AssignedToID: req.AssignedToID.Value,
	}

	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		respondServerError(c, "create task", err)
		return
	}

	// Перечитываем задачу вместе с создателем и исполнителем
	created, err := h.tasks.GetByID(c.Request.Context(), task.ID)
	if err != nil {
		respondServerError(c, "reload task", err)
		return
	}

	h.events.Created(created)

	if _, err := h.notifier.Notify(c.Request.Context(), notify.AssignmentChange{
		Kind:          notify.KindCreated,
		NewAssigneeID: created.AssignedToID,
		ActorID:       actorID,
		Task:          created,
	}); err != nil {
		respondServerError(c, "notify assignee", err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Update godoc
// @Summary Update any subset of task fields
// @Description An empty assignedToId clears the assignment, an empty or null dueDate clears the due date.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body UpdateTaskRequest true "Fields to change"
// @Success 200 {object} model.Task
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	actorID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return
	}

	taskID, ok := parseID(c, "Invalid task ID format")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		h.respondTaskError(c, "get task", err)
		return
	}
	oldAssigneeID := task.AssignedToID

	if req.AssignedToID.Set && !h.assigneeExists(c, req.AssignedToID.Value) {
		return
	}

	// Применяем только переданные поля
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.DueDate.Set {
		task.DueDate = req.DueDate.Value
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.AssignedToID.Set {
		task.AssignedToID = req.AssignedToID.Value
		task.Assignee = nil
	}

	if err := h.tasks.Save(c.Request.Context(), task); err != nil {
		h.respondTaskError(c, "update task", err)
		return
	}

	updated, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		h.respondTaskError(c, "reload task", err)
		return
	}

	h.events.Updated(updated)

	if _, err := h.notifier.Notify(c.Request.Context(), notify.AssignmentChange{
		Kind:          notify.KindUpdated,
		OldAssigneeID: oldAssigneeID,
		NewAssigneeID: updated.AssignedToID,
		ActorID:       actorID,
		Task:          updated,
	}); err != nil {
		respondServerError(c, "notify assignee", err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	taskID, ok := parseID(c, "Invalid task ID format")
	if !ok {
		return
	}

	if _, err := h.tasks.GetByID(c.Request.Context(), taskID); err != nil {
		h.respondTaskError(c, "get task", err)
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), taskID); err != nil {
		h.respondTaskError(c, "delete task", err)
		return
	}

	h.events.Deleted(taskID)

	c.JSON(http.StatusOK, gin.H{"message": "Task removed"})
}

// assigneeExists writes a validation error and reports false when the id
// does not belong to a user. A nil id is always accepted.
func (h *TaskHandler) assigneeExists(c *gin.Context, id *uuid.UUID) bool {
	if id == nil {
		return true
	}
	user, err := h.users.GetByID(c.Request.Context(), *id)
	if err != nil {
		respondServerError(c, "get assignee", err)
		return false
	}
	if user == nil {
		respondFieldError(c, "assignedToId", "user not found")
		return false
	}
	return true
}

func (h *TaskHandler) respondTaskError(c *gin.Context, op string, err error) {
	if errors.Is(err, repository.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Task not found"})
		return
	}
	respondServerError(c, op, err)
}

func parseID(c *gin.Context, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
		return uuid.Nil, false
	}
	return id, true
}
