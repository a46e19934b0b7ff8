package notify

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/zenithmed/procureflow/internal/models"
	"go.uber.org/zap"
)

// LarkTransport pushes notifications as Lark text messages, addressed by the
// recipient's email.
type LarkTransport struct {
	client *lark.Client
	logger *zap.Logger
}

// NewLarkTransport creates a transport backed by a Lark tenant app.
func NewLarkTransport(appID, appSecret string, logger *zap.Logger) *LarkTransport {
	client := lark.NewClient(appID, appSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)
	return &LarkTransport{client: client, logger: logger}
}

// Send delivers one text message. Recipients without an email are skipped.
func (t *LarkTransport) Send(ctx context.Context, recipient *models.User, message, requisitionID string) error {
	if recipient.Email == "" {
		t.logger.Debug("Recipient has no email, skipping push",
			zap.String("recipient_id", recipient.ID))
		return nil
	}

	content, err := json.Marshal(map[string]string{
		"text": fmt.Sprintf("%s (requisition %s)", message, requisitionID),
	})
	if err != nil {
		return fmt.Errorf("failed to encode message content: %w", err)
	}

	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType("email").
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(recipient.Email).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := t.client.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	t.logger.Info("Notification pushed",
		zap.String("recipient_id", recipient.ID),
		zap.String("requisition_id", requisitionID))
	return nil
}
