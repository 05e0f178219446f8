// Package notify creates and delivers assignment notifications.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"taskhub/internal/model"
	"taskhub/internal/realtime"
)

// Kind tells which mutation produced the assignment change.
type Kind int

const (
	KindCreated Kind = iota
	KindUpdated
)

// AssignmentChange describes a committed task write as seen by the notifier.
type AssignmentChange struct {
	Kind          Kind
	OldAssigneeID *uuid.UUID
	NewAssigneeID *uuid.UUID
	ActorID       uuid.UUID
	Task          *model.Task
}

// NotificationPayload is sent to the assignee's channel.
type NotificationPayload struct {
	Message string    `json:"message"`
	TaskID  uuid.UUID `json:"taskId"`
}

// AssignedPayload is broadcast so every board can refresh the assignee.
type AssignedPayload struct {
	Task         *model.Task `json:"task"`
	AssignedToID uuid.UUID   `json:"assignedToId"`
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}

type Notifier struct {
	store  NotificationStore
	router realtime.Router
}

func NewNotifier(store NotificationStore, router realtime.Router) *Notifier {
	return &Notifier{store: store, router: router}
}

// ShouldNotify fires only for a present assignee that changed and is not the actor.
func ShouldNotify(change AssignmentChange) bool {
	if change.NewAssigneeID == nil {
		return false
	}
	if change.OldAssigneeID != nil && *change.OldAssigneeID == *change.NewAssigneeID {
		return false
	}
	return *change.NewAssigneeID != change.ActorID
}

// Message renders the text stored on the notification.
func Message(kind Kind, title string) string {
	if kind == KindCreated {
		return fmt.Sprintf("You have been assigned a new task: %s", title)
	}
	return fmt.Sprintf("You have been assigned a task: %s", title)
}

// Notify persists and delivers a notification when the change calls for one.
// It returns nil, nil when nothing fired. The task write has already
// committed by the time an error comes back.
func (n *Notifier) Notify(ctx context.Context, change AssignmentChange) (*model.Notification, error) {
	if !ShouldNotify(change) {
		return nil, nil
	}

	recipient := *change.NewAssigneeID
	sender := change.ActorID
	taskID := change.Task.ID
	notification := &model.Notification{
		RecipientID:   recipient,
		SenderID:      &sender,
		Type:          model.NotificationTypeTaskAssigned,
		Message:       Message(change.Kind, change.Task.Title),
		RelatedTaskID: &taskID,
	}
	if err := n.store.Create(ctx, notification); err != nil {
		return nil, err
	}
	log.Printf("[notify] Task %s assigned to %s by %s", taskID, recipient, sender)

	n.router.SendToChannel(recipient.String(), realtime.EventNotification, NotificationPayload{
		Message: notification.Message,
		TaskID:  taskID,
	})
	n.router.Broadcast(realtime.EventTaskAssigned, AssignedPayload{
		Task:         change.Task,
		AssignedToID: recipient,
	})
	return notification, nil
}
