package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskhub/internal/model"
	"taskhub/internal/query"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID retrieves a task with its creator and assignee
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Assignee").
		First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", result.Error)
	}
	return &task, nil
}

// Find executes a list plan. Ordering by date columns happens in SQL,
// the priority re-rank afterwards.
func (r *TaskRepository) Find(ctx context.Context, plan query.Plan) ([]model.Task, error) {
	tasks := []model.Task{}
	if plan.Empty {
		return tasks, nil
	}

	tx := r.db.WithContext(ctx).Model(&model.Task{}).
		Preload("Creator").
		Preload("Assignee")

	if plan.Status != nil {
		tx = tx.Where("status = ?", *plan.Status)
	}
	if plan.ExcludeStatus != nil {
		tx = tx.Where("status <> ?", *plan.ExcludeStatus)
	}
	if plan.Priority != nil {
		tx = tx.Where("priority = ?", *plan.Priority)
	}
	if plan.Search != "" {
		tx = r.whereSearch(tx, plan.Search)
	}
	if plan.AssigneeID != nil {
		tx = tx.Where("assigned_to_id = ?", *plan.AssigneeID)
	}
	if plan.CreatorID != nil {
		tx = tx.Where("creator_id = ?", *plan.CreatorID)
	}
	if plan.DueBefore != nil {
		tx = tx.Where("due_date IS NOT NULL AND due_date < ?", *plan.DueBefore)
	}

	tx = tx.Order(clause.OrderByColumn{
		Column: clause.Column{Name: plan.OrderColumn},
		Desc:   plan.Descending,
	})

	if err := tx.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	plan.Apply(tasks)
	return tasks, nil
}

// whereSearch matches the term in title or description ignoring case.
// Postgres folds non-ASCII letters through ILIKE, sqlite LOWER() only
// folds ASCII.
func (r *TaskRepository) whereSearch(tx *gorm.DB, term string) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		pattern := "%" + query.EscapeLike(term) + "%"
		return tx.Where(`(title ILIKE ? ESCAPE '\' OR description ILIKE ? ESCAPE '\')`, pattern, pattern)
	}
	pattern := "%" + query.EscapeLike(strings.ToLower(term)) + "%"
	return tx.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
}

// Save writes every column of the task. Concurrent writers race and the
// last one wins.
func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).
		Model(task).
		Select("*").
		Omit("id", "creator_id", "created_at", clause.Associations).
		Updates(task)
	if result.Error != nil {
		return fmt.Errorf("failed to update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
