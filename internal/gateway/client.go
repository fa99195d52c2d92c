package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/blues/fes/internal/config"
	"github.com/blues/fes/internal/logger"
)

// Client 支付网关HTTP客户端
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	timeout    time.Duration
	httpClient *http.Client
}

// Init 初始化网关客户端
func Init(cfg config.GatewayConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base_url is required")
	}
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, fmt.Errorf("gateway key_id and key_secret are required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		timeout:    timeout,
		httpClient: &http.Client{},
	}, nil
}

// CreateOrder 创建支付订单
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	body := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}

	var order Order
	if err := c.do(ctx, http.MethodPost, "/v1/orders", body, &order); err != nil {
		return nil, err
	}

	logger.Info("Created gateway order %s for amount %d %s", order.OrderRef, amount, currency)
	return &order, nil
}

// VerifySignature 校验支付完成回调的签名
func (c *Client) VerifySignature(orderRef, paymentRef, signature string) bool {
	return verifySignature(orderRef, paymentRef, signature, c.keySecret)
}

// TransferFunds 从托管账户向收款账户转账
func (c *Client) TransferFunds(ctx context.Context, destination string, amount int64, currency, referenceId string) (*Transfer, error) {
	body := map[string]interface{}{
		"account":      destination,
		"amount":       amount,
		"currency":     currency,
		"reference_id": referenceId,
	}

	var transfer Transfer
	if err := c.do(ctx, http.MethodPost, "/v1/payouts", body, &transfer); err != nil {
		return nil, err
	}

	return &transfer, nil
}

// GetTransferByReference 按幂等键查询转账
func (c *Client) GetTransferByReference(ctx context.Context, referenceId string) (*Transfer, error) {
	var result struct {
		Items []Transfer `json:"items"`
	}

	path := "/v1/payouts?reference_id=" + url.QueryEscape(referenceId)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	if len(result.Items) == 0 {
		return nil, ErrNotFound
	}
	return &result.Items[0], nil
}

// do 执行一次网关调用，超时和网络错误统一归为 ErrUnreachable
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Gateway call %s %s failed: %v", method, path, err)
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Error APIError `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil {
			apiErr.Code = errBody.Error.Code
			apiErr.Desc = errBody.Error.Desc
		}
		logger.Error("Gateway call %s %s returned %d: %s", method, path, resp.StatusCode, apiErr.Desc)
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}

	return nil
}
