// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"gemini-duck-go/internal/config"
	"gemini-duck-go/pkg/log"
)

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"` // "system", "user" 或 "assistant"
	Content string `json:"content"`
}

// Client defines the interface for an LLM client.
type Client interface {
	// Generate 同步调用聊天接口并返回完整应答文本。
	// 按配置的模型优先级逐个尝试，全部失败时返回错误。
	Generate(ctx context.Context, messages []Message) (string, error)
	// ActiveModel 返回最近一次成功应答的模型名。
	ActiveModel() string
}

type openAIClient struct {
	cfg    config.LLMConfig
	client *http.Client

	mu     sync.RWMutex
	active string
}

// NewClient creates a new LLM client based on the config.
func NewClient(cfg config.LLMConfig) Client {
	return &openAIClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 120 * time.Second},
		active: "не определена",
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) ActiveModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Generate 按优先级尝试候选模型，单个模型失败时落到下一个。
func (c *openAIClient) Generate(ctx context.Context, messages []Message) (string, error) {
	models := c.cfg.Models
	if len(models) == 0 {
		return "", fmt.Errorf("未配置任何候选模型")
	}

	var lastErr error
	for _, modelName := range models {
		text, err := c.generateWith(ctx, modelName, messages)
		if err != nil {
			lastErr = err
			log.Warnf("模型 %s 不可用: %v", modelName, err)
			// 请求被取消时没有必要继续尝试其它模型
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		c.mu.Lock()
		c.active = modelName
		c.mu.Unlock()
		return text, nil
	}
	return "", fmt.Errorf("所有候选模型均不可用: %w", lastErr)
}

func (c *openAIClient) generateWith(ctx context.Context, modelName string, messages []Message) (string, error) {
	reqBody := chatRequest{
		Model:    modelName,
		Messages: messages,
		Stream:   false,
	}
	// 从配置注入生成参数（若非零值）
	if c.cfg.Temperature != 0 {
		t := c.cfg.Temperature
		reqBody.Temperature = &t
	}
	if c.cfg.TopP != 0 {
		p := c.cfg.TopP
		reqBody.TopP = &p
	}
	if c.cfg.MaxTokens != 0 {
		m := c.cfg.MaxTokens
		reqBody.MaxTokens = &m
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat api returned no choices")
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat api returned empty content")
	}
	return text, nil
}
