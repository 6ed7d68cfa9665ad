package imageedit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/vk/circuitgo/internal/ctxlog"
)

// SecretPath is where container deployments mount the API key.
const SecretPath = "/run/secrets/openai_api_key"

// Config configures OpenAIEditor.
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint, e.g. for a proxy.
	BaseURL string
	// Model defaults to dall-e-2, the model that supports masked edits.
	Model string
	// Size defaults to 256x256.
	Size string
}

// OpenAIEditor edits images through the OpenAI images API.
type OpenAIEditor struct {
	client *openai.Client
	model  string
	size   string
}

// NewOpenAIEditor creates an editor. An empty API key is an error.
func NewOpenAIEditor(cfg Config) (*OpenAIEditor, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.Model == "" {
		cfg.Model = openai.CreateImageModelDallE2
	}
	if cfg.Size == "" {
		cfg.Size = openai.CreateImageSize256x256
	}
	return &OpenAIEditor{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		size:   cfg.Size,
	}, nil
}

// Edit implements Editor.
func (e *OpenAIEditor) Edit(ctx context.Context, req Request) (string, error) {
	logger := ctxlog.FromContext(ctx)
	if len(req.Image) == 0 {
		return "", errors.New("image is empty")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("prompt is empty")
	}

	editReq := openai.ImageEditRequest{
		Image:          openai.WrapReader(bytes.NewReader(req.Image), "image.png", "image/png"),
		Prompt:         req.Prompt,
		Model:          e.model,
		N:              1,
		Size:           e.size,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	}
	if len(req.Mask) > 0 {
		editReq.Mask = openai.WrapReader(bytes.NewReader(req.Mask), "mask.png", "image/png")
	}

	logger.Debug("Requesting image edit.", "model", e.model, "size", e.size)
	resp, err := e.client.CreateEditImage(ctx, editReq)
	if err != nil {
		return "", fmt.Errorf("OpenAI image edit failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", errors.New("OpenAI returned no image")
	}
	return resp.Data[0].URL, nil
}

// LoadAPIKey reads OPENAI_API_KEY, falling back to the secret file. It
// returns "" when neither is set.
func LoadAPIKey(ctx context.Context, secretPath string) string {
	logger := ctxlog.FromContext(ctx)
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		return key
	}
	b, err := os.ReadFile(secretPath)
	if err != nil {
		logger.Debug("OpenAI API key not found.", "path", secretPath)
		return ""
	}
	logger.Info("Read the OpenAI API key from the secret file.", "path", secretPath)
	return strings.TrimSpace(string(b))
}

// New returns an OpenAIEditor when an API key is available and Unconfigured
// otherwise.
func New(ctx context.Context, cfg Config) Editor {
	if cfg.APIKey == "" {
		cfg.APIKey = LoadAPIKey(ctx, SecretPath)
	}
	ed, err := NewOpenAIEditor(cfg)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Image editing disabled.", slog.Any("reason", err))
		return Unconfigured{}
	}
	return ed
}
