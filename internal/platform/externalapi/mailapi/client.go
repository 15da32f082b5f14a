package mailapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"budget_backend/internal/platform/externalapi/mailapi/dto"
	"budget_backend/internal/platform/mail"
)

// Client はHTTP APIでメールを送信するmail.Transport実装です。
type Client struct {
	cfg    Config
	client *http.Client
}

// Clientがmail.Transportを実装していることをコンパイル時に検証します。
var _ mail.Transport = (*Client)(nil)

// NewClient は指定された設定とHTTPクライアントでClientの新しいインスタンスを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// Send はメッセージをJSONとして送信エンドポイントにPOSTします。
func (c *Client) Send(ctx context.Context, msg mail.Message) error {
	payload, err := json.Marshal(dto.SendRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
	if err != nil {
		return err
	}

	// URLを生成
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/send"

	// リクエストオブジェクトを作成
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	// リクエストを実行
	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	// JSONレスポンスをDTOにデコード（失敗時もステータスで判定する）
	var body dto.SendResponse
	decodeErr := json.NewDecoder(res.Body).Decode(&body)

	if res.StatusCode >= 400 {
		if body.Message != "" {
			return fmt.Errorf("mailapi http %d: %s", res.StatusCode, body.Message)
		}
		return fmt.Errorf("mailapi http %d", res.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("mailapi: decode response: %w", decodeErr)
	}
	if body.Status == "error" {
		return fmt.Errorf("mailapi: %s", body.Message)
	}

	slog.Debug("mail accepted by provider", "id", body.ID, "to", msg.To)
	return nil
}
