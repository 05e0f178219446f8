package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondBindError reports a request that failed binding. Validation failures
// carry a per-field breakdown keyed by the JSON field name.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[jsonFieldName(fe)] = fieldMessage(fe)
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Fields: fields})
}

func respondFieldError(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:  "Validation failed",
		Fields: map[string]string{field: message},
	})
}

func respondServerError(c *gin.Context, op string, err error) {
	log.Printf("❌ %s: %v", op, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Server error"})
}

func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.StructField()
	}
	return name
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "uuid":
		return "must be a valid id"
	case tagTaskPriority:
		return "must be one of " + strings.Join(priorityNames(), ", ")
	case tagTaskStatus:
		return "must be one of " + strings.Join(statusNames(), ", ")
	}
	return "is invalid"
}
