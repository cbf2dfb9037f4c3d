package embeddings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pridato/vidgen/internal/ports"
)

const (
	DefaultModel   = "text-embedding-3-small"
	requestTimeout = 60 * time.Second
	batchSize      = 64
)

// OpenAI embeds text through the embeddings endpoint of any OpenAI
// compatible API.
type OpenAI struct {
	key    string
	model  string
	client openai.Client
}

var _ ports.Embedder = (*OpenAI)(nil)

func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	if model == "" {
		model = DefaultModel
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(normalizeBaseURL(baseURL)+"/"),
		option.WithMaxRetries(2),
	)
	return &OpenAI{key: apiKey, model: model, client: client}
}

func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if strings.TrimSpace(o.key) == "" {
		return nil, errors.New("embeddings: OPENAI_API_KEY is not set")
	}
	out := make([][]float64, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		if err := o.embedBatch(ctx, texts[start:end], out[start:end]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (o *OpenAI) embedBatch(ctx context.Context, texts []string, dst [][]float64) error {
	input := make([]string, len(texts))
	for i, t := range texts {
		// the endpoint rejects empty strings
		if strings.TrimSpace(t) == "" {
			t = " "
		}
		input[i] = t
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	resp, err := o.client.Embeddings.New(reqCtx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: input},
		Model: openai.EmbeddingModel(o.model),
	})
	if err != nil {
		return fmt.Errorf("embeddings request: %s", truncate(redactSecrets(err.Error(), o.key), 400))
	}
	if len(resp.Data) != len(texts) {
		return fmt.Errorf("embeddings: got %d vectors for %d texts", len(resp.Data), len(texts))
	}
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(dst) {
			return fmt.Errorf("embeddings: index %d out of range", d.Index)
		}
		dst[d.Index] = d.Embedding
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
