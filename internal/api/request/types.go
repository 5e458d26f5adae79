package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/gomoku-arena/internal/api/apierr"
	"github.com/mcoot/gomoku-arena/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode reads a JSON body into dst and validates it. An empty body decodes
// to the zero value, which is then validated like any other.
func Decode(r *http.Request, dst any) error {
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return apierr.NewInvalidRequestError("invalid request body")
		}
	}
	return validate.Struct(dst)
}

// UsernameRequest is the body of room operations that only name the actor.
// Username may be omitted when a bearer session is presented.
type UsernameRequest struct {
	Username string `json:"username" validate:"omitempty,max=20,alpha"`
}

// Actor returns the username named in the body
func (r UsernameRequest) Actor() string {
	return r.Username
}

// UpdateUsernameRequest is the request body for renaming
type UpdateUsernameRequest struct {
	OldUsername string `json:"old_username" validate:"required"`
	NewUsername string `json:"new_username" validate:"required,max=20,alpha"`
}

// AIConfig is a player's oracle configuration as sent by clients
type AIConfig struct {
	URL          string `json:"url" validate:"omitempty,url"`
	Key          string `json:"key" validate:"required"`
	Model        string `json:"model"`
	CustomPrompt string `json:"custom_prompt" validate:"max=200"`
}

// ToModel converts the request config
func (c AIConfig) ToModel() model.AIConfig {
	return model.AIConfig{
		URL:          c.URL,
		Key:          c.Key,
		Model:        c.Model,
		CustomPrompt: c.CustomPrompt,
	}
}

// SetAIConfigRequest is the request body for storing an AI config
type SetAIConfigRequest struct {
	UsernameRequest
	AIConfig AIConfig `json:"ai_config"`
}

// LockConfigRequest is the request body for locking or unlocking a config
type LockConfigRequest struct {
	UsernameRequest
	Locked       bool `json:"locked"`
	CancelUnlock bool `json:"cancel_unlock"`
}

// SetReadyRequest is the request body for the ready toggle
type SetReadyRequest struct {
	UsernameRequest
	Ready bool `json:"ready"`
}

// SetColorRequest is the request body for the owner's colour choice
type SetColorRequest struct {
	UsernameRequest
	Color string `json:"color" validate:"required,oneof=black white"`
}

// SendMessageRequest is the request body for room chat
type SendMessageRequest struct {
	UsernameRequest
	Message string `json:"message" validate:"required,max=500"`
}

// AutostepRequest is the request body for starting an autostep job
type AutostepRequest struct {
	UsernameRequest
	AutoConfirm bool `json:"auto_confirm"`
	MaxAttempts int  `json:"max_attempts" validate:"omitempty,min=1,max=20"`
}
