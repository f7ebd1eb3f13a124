// Package transport issues the wire request a translator builds,
// enforces the resolved timeout, and classifies failures into the
// providererr taxonomy. Nothing here retries - the maxRetries setting is
// resolved by package config purely for diagnostic logging.
package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/loomcode/loomcode/canonical"
	"github.com/loomcode/loomcode/descriptor"
	"github.com/loomcode/loomcode/providererr"
	"github.com/loomcode/loomcode/stream"
	"github.com/loomcode/loomcode/wire"
)

// timeoutSubstrings is a fallback classifier, consulted only after the
// structured checks (context.DeadlineExceeded, net.Error.Timeout()) come
// up empty.
var timeoutSubstrings = []string{"timeout", "timed out", "deadline exceeded", "etimedout", "esockettimedout"}

// Transport issues requests for one bound descriptor + translator +
// resolved configuration. It holds no per-request state; concurrent calls
// on the same Transport are safe.
type Transport struct {
	client     *http.Client
	baseURL    string
	headers    map[string]string
	timeout    time.Duration
	translator wire.Translator
	descriptor *descriptor.Descriptor
	logger     zerolog.Logger
}

// New builds a Transport bound to one backend.
func New(d *descriptor.Descriptor, translator wire.Translator, baseURL string, headers map[string]string, timeout time.Duration, logger zerolog.Logger) *Transport {
	return &Transport{
		client:     &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		headers:    headers,
		timeout:    timeout,
		translator: translator,
		descriptor: d,
		logger:     logger,
	}
}

// Generate issues a non-streaming chat request and returns the translated
// canonical response. promptID correlates this request's log lines; an
// empty promptID is minted fresh with google/uuid.
func (t *Transport) Generate(ctx context.Context, req *canonical.Request, opts wire.RequestOptions, promptID string) (*canonical.Response, error) {
	logger := t.correlatedLogger(promptID)

	opts.Stream = false
	body, err := t.translator.BuildChatRequest(req, opts)
	if err != nil {
		return nil, err
	}

	respBody, err := t.do(ctx, t.descriptor.Endpoints.Chat, body, "request", logger)
	if err != nil {
		return nil, err
	}
	return t.translator.ParseChatResponse(respBody)
}

// GenerateStream issues a streaming chat request. The returned channel
// carries accumulated canonical chunks; the error channel carries at
// most one error and is closed alongside the chunk channel.
func (t *Transport) GenerateStream(ctx context.Context, req *canonical.Request, opts wire.RequestOptions, promptID string) (<-chan canonical.StreamChunk, <-chan error) {
	chunks := make(chan canonical.StreamChunk)
	errs := make(chan error, 1)

	logger := t.correlatedLogger(promptID)

	opts.Stream = true
	body, err := t.translator.BuildChatRequest(req, opts)
	if err != nil {
		errs <- err
		close(chunks)
		close(errs)
		return chunks, errs
	}

	go t.runStream(ctx, body, chunks, errs, logger)
	return chunks, errs
}

// correlatedLogger attaches promptID to t.logger, minting one via
// google/uuid when the caller didn't supply one, so every log line for one
// request shares a correlation id.
func (t *Transport) correlatedLogger(promptID string) zerolog.Logger {
	if promptID == "" {
		promptID = uuid.NewString()
	}
	return t.logger.With().Str("promptId", promptID).Logger()
}

func (t *Transport) runStream(ctx context.Context, body []byte, chunks chan<- canonical.StreamChunk, errs chan<- error, logger zerolog.Logger) {
	defer close(chunks)
	defer close(errs)

	streamCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodPost, t.baseURL+t.descriptor.Endpoints.Chat, bytes.NewReader(body))
	if err != nil {
		errs <- err
		return
	}
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		errs <- classifyTimeout(err, "stream-setup", t.timeout)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		errs <- t.classifyHTTPStatus(resp.StatusCode, resp.Status, respBody)
		return
	}

	acc := stream.New(logger)
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")

		if after, ok := strings.CutPrefix(trimmed, "data:"); ok {
			data := strings.TrimSpace(after)
			switch {
			case data == "":
			case data == "[DONE]":
				return
			default:
				delta, perr := t.translator.ParseStreamChunk([]byte(data))
				if perr != nil {
					logger.Warn().Err(perr).Msg("skipping unparseable stream chunk")
				} else if chunk, ok := acc.Feed(delta); ok {
					select {
					case chunks <- *chunk:
					case <-ctx.Done():
						return
					}
				}
			}
		}

		if err != nil {
			if err != io.EOF {
				errs <- classifyTimeout(err, "request", t.timeout)
			}
			return
		}
	}
}

// CountTokens issues a full chat request under response_usage counting, or
// falls back to the 4-chars-per-token estimate. Generation-config
// overrides on the caller's request are ignored for the probe - only
// model, system instruction, and contents are sent.
func (t *Transport) CountTokens(ctx context.Context, req *canonical.Request) (*canonical.CountTokensResult, error) {
	if t.descriptor.TokenCounting.Method == "response_usage" {
		probe := &canonical.Request{Model: req.Model, SystemInstruction: req.SystemInstruction, Contents: req.Contents}
		resp, err := t.Generate(ctx, probe, wire.RequestOptions{}, "")
		if err == nil {
			return &canonical.CountTokensResult{TotalTokens: resp.Usage.PromptTokens}, nil
		}
		t.logger.Warn().Err(err).Msg("response_usage token counting failed; falling back to estimation")
	}
	return &canonical.CountTokensResult{TotalTokens: estimateTokens(req)}, nil
}

func estimateTokens(req *canonical.Request) int {
	raw, err := json.Marshal(req.Contents)
	if err != nil {
		return 0
	}
	return int(math.Ceil(float64(len(raw)) / 4))
}

// Embed flattens the request's text content and posts it to the
// descriptor's embedding endpoint, hard-coding the legacy embedding model
// Raises OperationUnsupported if the descriptor has no embedding
// endpoint.
func (t *Transport) Embed(ctx context.Context, req *canonical.Request) (*canonical.EmbedResult, error) {
	if t.descriptor.Endpoints.Embedding == "" {
		return nil, &providererr.OperationUnsupported{Operation: "embed", AdapterType: t.descriptor.AdapterType}
	}

	body, err := t.translator.BuildEmbedRequest(flattenContents(req.Contents))
	if err != nil {
		return nil, err
	}

	respBody, err := t.do(ctx, t.descriptor.Endpoints.Embedding, body, "request", t.logger)
	if err != nil {
		return nil, err
	}
	return t.translator.ParseEmbedResponse(respBody)
}

func flattenContents(contents []canonical.Content) string {
	var sb strings.Builder
	for _, c := range contents {
		for _, p := range c.Parts {
			if tp, ok := p.(canonical.TextPart); ok {
				sb.WriteString(tp.Text)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

func (t *Transport) do(ctx context.Context, endpointPath string, body []byte, phase string, logger zerolog.Logger) ([]byte, error) {
	logger.Debug().Str("endpoint", endpointPath).Msg("issuing request")

	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, t.baseURL+endpointPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyTimeout(err, phase, t.timeout)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTimeout(err, phase, t.timeout)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, t.classifyHTTPStatus(resp.StatusCode, resp.Status, respBody)
	}

	return respBody, nil
}

func (t *Transport) classifyHTTPStatus(statusCode int, statusText string, body []byte) error {
	message := ""
	if path := t.descriptor.ErrorHandling.ErrorMessagePath; path != "" {
		message = gjson.GetBytes(body, path).String()
	}
	httpErr := &providererr.HTTPError{StatusCode: statusCode, StatusText: statusText, Message: message}

	if containsInt(t.descriptor.ErrorHandling.AuthErrorStatus, statusCode) {
		return &providererr.AuthError{HTTPError: httpErr}
	}
	if containsInt(t.descriptor.ErrorHandling.RateLimitStatus, statusCode) || containsInt(t.descriptor.ErrorHandling.QuotaErrorStatus, statusCode) {
		return &providererr.RateLimited{HTTPError: httpErr}
	}
	return httpErr
}

func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// classifyTimeout applies the structured checks first and falls back to
// the substring list only when those come up empty.
func classifyTimeout(err error, phase string, timeout time.Duration) error {
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded)

	var netErr net.Error
	if !isTimeout && errors.As(err, &netErr) {
		isTimeout = netErr.Timeout()
	}

	if !isTimeout {
		msg := strings.ToLower(err.Error())
		for _, sub := range timeoutSubstrings {
			if strings.Contains(msg, sub) {
				isTimeout = true
				break
			}
		}
	}

	if !isTimeout {
		return err
	}
	return &providererr.Timeout{
		Phase:       phase,
		TimeoutMS:   int(timeout / time.Millisecond),
		Remediation: providererr.RemediationTimeout,
	}
}
