package conversation

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"pawfect/internal/config"
	"pawfect/internal/domain/models"
	"pawfect/internal/domain/services"
)

func validateSendMessageRequest(req *services.SendMessageRequest) error {
	if req == nil {
		return errors.New("request body is required")
	}

	err := validation.ValidateStruct(req,
		validation.Field(&req.Messages,
			validation.Required,
			validation.Each(validation.By(validateChatMessage)),
		),
	)
	if err != nil {
		return err
	}

	last := req.Messages[len(req.Messages)-1]
	if strings.TrimSpace(last.Content) == "" {
		return validation.Errors{"messages": errors.New("last message must have content")}
	}
	return nil
}

// validateChatMessage checks one caller-supplied turn. System turns are
// rejected: the gateway injects the only system message.
func validateChatMessage(value interface{}) error {
	msg, ok := value.(models.ChatMessage)
	if !ok {
		return errors.New("must be a chat message")
	}
	return validation.ValidateStruct(&msg,
		validation.Field(&msg.Role,
			validation.Required,
			validation.In(models.RoleUser, models.RoleAssistant).Error("must be 'user' or 'assistant'"),
		),
		validation.Field(&msg.Content,
			validation.RuneLength(0, config.MaxMessageContentLength),
		),
	)
}
