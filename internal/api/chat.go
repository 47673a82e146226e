package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/nutribuddy/internal/errors"
	"github.com/diogo/nutribuddy/internal/models"
)

// PathReply is the GJSON path of the reply in a chat response
const PathReply = "reply"

const (
	// maxResponseSize caps how much of a response body is read
	maxResponseSize = 1 << 20
	// maxErrorBody caps the body kept on an APIError
	maxErrorBody = 4096
)

// errClientClosed is wrapped in the NetworkError returned after Close
var errClientClosed = errors.New("client is closed")

// SendMessage posts message to the chat endpoint and returns the reply.
// A blank message fails with errors.ErrEmptyMessage before any request is
// made. Every other failure is one of APIError, NetworkError, TimeoutError or
// ParseError, all of which match errors.ErrReplyUnavailable.
func (c *ChatClient) SendMessage(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", apierrors.ErrEmptyMessage
	}

	if c.IsClosed() {
		return "", apierrors.NewNetworkError("send message", errClientClosed)
	}

	endpoint := c.baseURL + models.EndpointChat

	payload, err := json.Marshal(models.ChatRequest{Message: message})
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("build request", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("build request", endpoint, err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apierrors.NewTimeoutError(fmt.Sprintf("no reply from %s", endpoint))
		}
		return "", apierrors.NewNetworkErrorWithEndpoint("send message", endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("read response", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, models.EndpointChat, "chat request failed", string(body))
	}

	return parseReply(body)
}

// parseReply extracts the reply string from a chat response body
func parseReply(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("response is not valid JSON", "")
	}

	reply := gjson.GetBytes(body, PathReply)
	if !reply.Exists() {
		return "", apierrors.NewParseError("missing reply field", PathReply)
	}
	if reply.Type != gjson.String {
		return "", apierrors.NewParseError("reply is not a string", PathReply)
	}

	return reply.String(), nil
}
