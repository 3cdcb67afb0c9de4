package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Client — шлюз доставки SMS. Ядро считает его непрозрачным удалённым
// вызовом: любой не-200 статус — ошибка, ретраев нет.
type Client struct {
	BaseURL    string
	APIKey     string
	TemplateID int
	DryRun     bool // dry-run режим: логируем вместо отправки

	HTTPClient *http.Client
}

type Param struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type sendRequest struct {
	TemplateID int     `json:"TemplateId"`
	Mobile     string  `json:"Mobile"`
	Parameters []Param `json:"Parameters"`
}

func NewClient(baseURL, apiKey string, templateID int, dryRun bool) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		TemplateID: templateID,
		DryRun:     dryRun,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send доставляет шаблонное сообщение на номер. DRY-RUN: не делаем HTTP-запрос.
func (c *Client) Send(mobile string, params ...Param) error {
	if c.DryRun || c.APIKey == "" {
		log.Printf("[sms][dry-run] to=%s params=%v", mobile, params)
		return nil
	}

	body, err := json.Marshal(sendRequest{
		TemplateID: c.TemplateID,
		Mobile:     mobile,
		Parameters: params,
	})
	if err != nil {
		return fmt.Errorf("sms gateway: marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sms gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("[sms][send][err] to=%s status=%d body=%s", mobile, resp.StatusCode, string(raw))
		return fmt.Errorf("sms gateway: unexpected status %d", resp.StatusCode)
	}
	return nil
}
