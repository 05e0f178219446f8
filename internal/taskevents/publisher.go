// Package taskevents mirrors task lifecycle changes to every connected client.
package taskevents

import (
	"github.com/google/uuid"

	"taskhub/internal/model"
	"taskhub/internal/realtime"
)

type Publisher struct {
	router realtime.Router
}

func NewPublisher(router realtime.Router) *Publisher {
	return &Publisher{router: router}
}

// Created broadcasts the full snapshot of a new task.
func (p *Publisher) Created(task *model.Task) {
	p.router.Broadcast(realtime.EventTaskCreated, task)
}

// Updated broadcasts the full snapshot of a changed task.
func (p *Publisher) Updated(task *model.Task) {
	p.router.Broadcast(realtime.EventTaskUpdated, task)
}

// Deleted broadcasts the id of a removed task.
func (p *Publisher) Deleted(id uuid.UUID) {
	p.router.Broadcast(realtime.EventTaskDeleted, id.String())
}
