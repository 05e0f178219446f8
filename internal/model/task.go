package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxTitleLength is the longest title a task may carry.
const MaxTitleLength = 100

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

var priorityRank = map[Priority]int{
	PriorityUrgent: 3,
	PriorityHigh:   2,
	PriorityMedium: 1,
	PriorityLow:    0,
}

// Rank orders priorities for sorting. Unknown values rank with Low.
func (p Priority) Rank() int {
	return priorityRank[p]
}

func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusReview     Status = "Review"
	StatusCompleted  Status = "Completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusReview, StatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"_id"`
	Title        string     `gorm:"size:100;not null" json:"title"`
	Description  string     `gorm:"not null" json:"description"`
	DueDate      *time.Time `json:"dueDate"`
	Priority     Priority   `gorm:"not null;default:'Medium';index" json:"priority"`
	Status       Status     `gorm:"not null;default:'To Do';index" json:"status"`
	CreatorID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"creatorId"`
	AssignedToID *uuid.UUID `gorm:"type:uuid;index" json:"assignedToId"`
	CreatedAt    time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	Creator  *User `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Assignee *User `gorm:"foreignKey:AssignedToID" json:"assignee,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusToDo
	}
	return nil
}
