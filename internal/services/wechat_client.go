package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var ErrProviderNoIdentity = errors.New("identity provider returned no openid")

// WeChatError is a provider-side failure reported in a 200 response body.
type WeChatError struct {
	Code    int
	Message string
}

func (e *WeChatError) Error() string {
	return fmt.Sprintf("wechat errcode %d: %s", e.Code, e.Message)
}

type jsCode2SessionResponse struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
	UnionID    string `json:"unionid"`
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
}

// WeChatClient exchanges mini-program login codes via jscode2session.
type WeChatClient struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	secret     string
}

func NewWeChatClient(baseURL, appID, secret string, timeout time.Duration) *WeChatClient {
	return &WeChatClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		appID:      appID,
		secret:     secret,
	}
}

func (c *WeChatClient) Exchange(ctx context.Context, code string) (*Identity, error) {
	query := url.Values{}
	query.Set("appid", c.appID)
	query.Set("secret", c.secret)
	query.Set("js_code", code)
	query.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sns/jscode2session?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build jscode2session request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jscode2session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jscode2session returned status %d", resp.StatusCode)
	}

	// WeChat answers with text/plain, so the content type is not checked.
	var body jsCode2SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode jscode2session response: %w", err)
	}

	if body.ErrCode != 0 {
		return nil, &WeChatError{Code: body.ErrCode, Message: body.ErrMsg}
	}
	if body.OpenID == "" {
		return nil, ErrProviderNoIdentity
	}

	return &Identity{
		OpenID:     body.OpenID,
		UnionID:    body.UnionID,
		SessionKey: body.SessionKey,
	}, nil
}
