package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationTypeTaskAssigned tags notifications produced by an assignment change.
const NotificationTypeTaskAssigned = "TASK_ASSIGNED"

type Notification struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"_id"`
	RecipientID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipientId"`
	SenderID      *uuid.UUID `gorm:"type:uuid" json:"senderId"`
	Type          string     `gorm:"not null" json:"type"`
	Message       string     `gorm:"not null" json:"message"`
	RelatedTaskID *uuid.UUID `gorm:"type:uuid" json:"relatedTaskId"`
	IsRead        bool       `gorm:"not null;default:false" json:"isRead"`
	CreatedAt     time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	Sender      *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	RelatedTask *Task `gorm:"foreignKey:RelatedTaskID;constraint:OnDelete:SET NULL" json:"relatedTask,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
