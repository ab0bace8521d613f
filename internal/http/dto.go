package httpapi

import (
	"fmt"
	"reflect"
	"strings"

	"collab-events/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the validator and turns the first failure into a
// validation error naming the JSON field.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return domain.Validation("invalid request: %v", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return domain.Validation("%s is required", fe.Field())
	case "email":
		return domain.Validation("%s must be a valid email address", fe.Field())
	case "gt", "min":
		return domain.Validation("%s must be at least %s", fe.Field(), minLabel(fe))
	case "max":
		return domain.Validation("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return domain.Validation("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func minLabel(fe validator.FieldError) string {
	if fe.Tag() == "gt" {
		return fmt.Sprintf("greater than %s", fe.Param())
	}
	return fe.Param()
}

// eventRequest is the body of create, update and each batch item. Times are
// strings so several input layouts can be accepted.
type eventRequest struct {
	Title          string  `json:"title" validate:"required,max=255"`
	Description    *string `json:"description"`
	StartTime      *string `json:"start_time"`
	EndTime        *string `json:"end_time"`
	RecurrenceRule *string `json:"recurrence_rule"`

	// ChangeSummary is only read on update.
	ChangeSummary string `json:"change_summary"`
}

func (req *eventRequest) toFields() (domain.EventFields, error) {
	start, err := parseTime("start_time", req.StartTime)
	if err != nil {
		return domain.EventFields{}, err
	}
	end, err := parseTime("end_time", req.EndTime)
	if err != nil {
		return domain.EventFields{}, err
	}
	return domain.EventFields{
		Title:          req.Title,
		Description:    req.Description,
		StartTime:      start,
		EndTime:        end,
		RecurrenceRule: req.RecurrenceRule,
	}, nil
}

type batchRequest struct {
	Events []eventRequest `json:"events" validate:"required,min=1"`
}

type shareRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Role   string `json:"role" validate:"required"`
}

type permissionRequest struct {
	Role string `json:"role" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

// loginRequest accepts either username or email as the login.
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

func (r loginRequest) login() string {
	if s := strings.TrimSpace(r.Username); s != "" {
		return s
	}
	return strings.TrimSpace(r.Email)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
