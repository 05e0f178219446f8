package handler

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"taskhub/internal/model"
)

const (
	tagTaskPriority = "task_priority"
	tagTaskStatus   = "task_status"
)

func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(jsonTagName)
	_ = v.RegisterValidation(tagTaskPriority, func(fl validator.FieldLevel) bool {
		return model.Priority(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation(tagTaskStatus, func(fl validator.FieldLevel) bool {
		return model.Status(fl.Field().String()).Valid()
	})
}

// jsonTagName makes validation errors report the JSON field name.
func jsonTagName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func priorityNames() []string {
	return []string{
		string(model.PriorityLow),
		string(model.PriorityMedium),
		string(model.PriorityHigh),
		string(model.PriorityUrgent),
	}
}

func statusNames() []string {
	return []string{
		string(model.StatusToDo),
		string(model.StatusInProgress),
		string(model.StatusReview),
		string(model.StatusCompleted),
	}
}
