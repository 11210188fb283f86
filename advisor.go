package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// providerConfig describes one advisory-service backend. Kind selects the
// wire dialect: "openai" (chat completions), "anthropic" or "google".
type providerConfig struct {
	BaseURL string
	Model   string
	Kind    string
}

var advisoryProviders = map[string]providerConfig{
	"deepseek":  {BaseURL: "https://api.deepseek.com", Model: "deepseek-chat", Kind: "openai"},
	"qwen":      {BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1", Model: "qwen-plus", Kind: "openai"},
	"openai":    {BaseURL: "https://api.openai.com/v1", Model: "gpt-4.1-mini", Kind: "openai"},
	"anthropic": {BaseURL: "https://api.anthropic.com/v1", Model: "claude-3-opus-20240229", Kind: "anthropic"},
	"gemini":    {BaseURL: "https://generativelanguage.googleapis.com/v1beta", Model: "gemini-pro", Kind: "google"},
}

// Advice is the advisory service's suggestion: a human-readable rationale
// plus additional exclusion rules to merge before scanning. Purely additive;
// the pipeline works identically without it.
type Advice struct {
	Analysis string   `json:"analysis"`
	Dirs     []string `json:"excluded_dirs"`
	Exts     []string `json:"excluded_extensions"`
}

// Advisor calls a remote model to suggest exclusion rules from a project's
// structure summary.
type Advisor struct {
	hc      *http.Client
	kind    string
	baseURL string
	model   string
	apiKey  string
}

// NewAdvisor builds an Advisor for the named provider. baseURL and model
// override the provider defaults when non-empty.
func NewAdvisor(provider, apiKey, baseURL, model string) (*Advisor, error) {
	cfg, ok := advisoryProviders[strings.ToLower(provider)]
	if !ok {
		return nil, fmt.Errorf("unknown advisory provider %q", provider)
	}
	if apiKey == "" {
		return nil, errors.New("advisory service requires an API key")
	}
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}
	if model == "" {
		model = cfg.Model
	}
	return &Advisor{
		hc:      &http.Client{Timeout: 30 * time.Second},
		kind:    cfg.Kind,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
	}, nil
}

// SuggestExclusions sends the structure summary and returns parsed advice.
func (a *Advisor) SuggestExclusions(ctx context.Context, dirs, exts []string) (Advice, error) {
	prompt := buildAdvicePrompt(dirs, exts)
	var (
		content string
		err     error
	)
	switch a.kind {
	case "anthropic":
		content, err = a.callAnthropic(ctx, prompt)
	case "google":
		content, err = a.callGemini(ctx, prompt)
	default:
		content, err = a.callOpenAI(ctx, prompt)
	}
	if err != nil {
		return Advice{}, err
	}
	return parseAdvice(content)
}

func buildAdvicePrompt(dirs, exts []string) string {
	var b strings.Builder
	b.WriteString("You are reviewing a software project to decide which files are not source code ")
	b.WriteString("and should be excluded from a source-code filing document.\n\n")
	b.WriteString("Infer the technology stack from the summary below and produce a strict exclusion list. ")
	b.WriteString("Always exclude dependency directories (node_modules, venv, vendor), build output ")
	b.WriteString("(dist, build, target, bin, obj), IDE and VCS metadata (.git, .idea, .vscode), ")
	b.WriteString("media assets, archives and lock files. Never exclude real source directories ")
	b.WriteString("such as src, lib, app, core or components. Prefer excluding too much non-code ")
	b.WriteString("over excluding any real code.\n\n")
	fmt.Fprintf(&b, "Top-level directories: %s\n", strings.Join(dirs, ", "))
	fmt.Fprintf(&b, "File extensions observed: %s\n\n", strings.Join(exts, ", "))
	b.WriteString("Respond with pure JSON, no markdown fences, shaped as:\n")
	b.WriteString(`{"analysis": "...", "excluded_dirs": ["..."], "excluded_extensions": ["..."]}`)
	return b.String()
}

// parseAdvice tolerates models that wrap their JSON in markdown code fences.
func parseAdvice(content string) (Advice, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		if _, rest, ok := strings.Cut(content, "\n"); ok {
			content = rest
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	var advice Advice
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &advice); err != nil {
		return Advice{}, fmt.Errorf("advisory response is not valid JSON: %w", err)
	}
	return advice, nil
}

func (a *Advisor) postJSON(ctx context.Context, url string, headers map[string]string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := a.hc.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("advisory service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(slurp)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (a *Advisor) callOpenAI(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":       a.model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"temperature": 0.1,
	}
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}
	if err := a.postJSON(ctx, a.baseURL+"/chat/completions", headers, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("advisory service returned an empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func (a *Advisor) callAnthropic(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":      a.model,
		"messages":   []map[string]string{{"role": "user", "content": prompt}},
		"max_tokens": 1024,
	}
	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": "2023-06-01",
	}
	if err := a.postJSON(ctx, a.baseURL+"/messages", headers, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == "" {
		return "", errors.New("advisory service returned an empty completion")
	}
	return resp.Content[0].Text, nil
}

func (a *Advisor) callGemini(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.baseURL, a.model, a.apiKey)
	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := a.postJSON(ctx, url, nil, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("advisory service returned an empty completion")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
