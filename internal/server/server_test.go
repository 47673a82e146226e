package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/nutribuddy/internal/models"
)

type fakeReplier struct {
	mu       sync.Mutex
	messages []string
	reply    func(message string) string
	deadline bool
}

func (f *fakeReplier) Reply(ctx context.Context, message string) string {
	f.mu.Lock()
	f.messages = append(f.messages, message)
	_, f.deadline = ctx.Deadline()
	f.mu.Unlock()

	if strings.TrimSpace(message) == "" {
		return models.EmptyMessageReply
	}
	if f.reply != nil {
		return f.reply(message)
	}
	return "echo: " + message
}

func (f *fakeReplier) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func doRequest(t *testing.T, s *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, req)
	return rec
}

// doWidget sends a form post the way htmx does.
func doWidget(t *testing.T, s *Server, target, message string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(url.Values{"message": {message}}.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("HX-Request", "true")
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, req)
	return rec
}

var hxValsPattern = regexp.MustCompile(`hx-vals="([^"]*)"`)

// pendingMessage returns the message a placeholder will ask a reply for.
func pendingMessage(t *testing.T, body string) string {
	t.Helper()
	m := hxValsPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "no hx-vals in %s", body)
	var req models.ChatRequest
	require.NoError(t, json.Unmarshal([]byte(html.UnescapeString(m[1])), &req))
	return req.Message
}

func decodeReply(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Reply
}

func TestHandleChat(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantMessage string
		wantReply   string
	}{
		{"valid", echo.MIMEApplicationJSON, `{"message":"I ate 1 apple"}`, "I ate 1 apple", "echo: I ate 1 apple"},
		{"no content type", "", `{"message":"2 eggs"}`, "2 eggs", "echo: 2 eggs"},
		{"missing message", echo.MIMEApplicationJSON, `{}`, "", models.EmptyMessageReply},
		{"non-string message", echo.MIMEApplicationJSON, `{"message":42}`, "", models.EmptyMessageReply},
		{"not json", echo.MIMETextPlain, `hello`, "", models.EmptyMessageReply},
		{"empty body", echo.MIMEApplicationJSON, ``, "", models.EmptyMessageReply},
		{"array", echo.MIMEApplicationJSON, `["message"]`, "", models.EmptyMessageReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replier := &fakeReplier{}
			s := New(replier)

			rec := doRequest(t, s, http.MethodPost, models.EndpointChat, tt.contentType, tt.body)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
			assert.Equal(t, tt.wantReply, decodeReply(t, rec))
			assert.Equal(t, []string{tt.wantMessage}, replier.calls())
		})
	}
}

func TestHandleChat_ReplyHasDeadline(t *testing.T) {
	replier := &fakeReplier{}
	s := New(replier, WithReplyTimeout(time.Second))

	doRequest(t, s, http.MethodPost, models.EndpointChat, echo.MIMEApplicationJSON, `{"message":"rice"}`)

	replier.mu.Lock()
	defer replier.mu.Unlock()
	assert.True(t, replier.deadline)
}

func TestHandleChat_RequestID(t *testing.T) {
	s := New(&fakeReplier{})
	rec := doRequest(t, s, http.MethodPost, models.EndpointChat, echo.MIMEApplicationJSON, `{"message":"milk"}`)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestHandleTurn(t *testing.T) {
	replier := &fakeReplier{}
	s := New(replier)

	rec := doWidget(t, s, models.EndpointTurn, "  <script>alert(1)</script> and 1 apple  ")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
	assert.Contains(t, body, `class="message user"`)
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt; and 1 apple")
	assert.NotContains(t, body, "<script>")

	// The user's bubble comes back at once, followed by a placeholder that
	// fetches the reply.
	assert.Contains(t, body, `class="message bot pending"`)
	assert.Contains(t, body, `hx-post="/chat/reply"`)
	assert.Contains(t, body, `hx-trigger="load"`)
	assert.Contains(t, body, `hx-swap="outerHTML`)
	assert.Contains(t, body, models.PlaceholderText)
	assert.Less(t, strings.Index(body, "message user"), strings.Index(body, "message bot pending"))
	assert.Equal(t, "<script>alert(1)</script> and 1 apple", pendingMessage(t, body))

	assert.Empty(t, replier.calls(), "the turn must not wait for the model")
}

func TestHandleReply(t *testing.T) {
	replier := &fakeReplier{reply: func(string) string { return "<b>Great</b> choice!" }}
	s := New(replier, WithReplyTimeout(time.Second))

	rec := doWidget(t, s, models.EndpointReply, "1 apple")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `class="message bot"`)
	assert.NotContains(t, body, "pending")
	assert.Contains(t, body, "&lt;b&gt;Great&lt;/b&gt; choice!")
	assert.NotContains(t, body, "<b>")
	assert.Equal(t, []string{"1 apple"}, replier.calls())

	replier.mu.Lock()
	defer replier.mu.Unlock()
	assert.True(t, replier.deadline)
}

func TestWidgetTurnFlow(t *testing.T) {
	replier := &fakeReplier{}
	s := New(replier)

	turn := doWidget(t, s, models.EndpointTurn, "2 eggs")
	require.Equal(t, http.StatusOK, turn.Code)

	reply := doWidget(t, s, models.EndpointReply, pendingMessage(t, turn.Body.String()))
	require.Equal(t, http.StatusOK, reply.Code)
	assert.Contains(t, reply.Body.String(), "echo: 2 eggs")
	assert.Equal(t, []string{"2 eggs"}, replier.calls())
}

func TestHandleReply_RateLimitedShowsFallback(t *testing.T) {
	replier := &fakeReplier{}
	s := New(replier, WithRateLimit(1))

	rec := doWidget(t, s, models.EndpointReply, "soda")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doWidget(t, s, models.EndpointReply, "soda")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
	assert.Contains(t, rec.Body.String(), `class="message bot"`)
	assert.Contains(t, rec.Body.String(), models.FallbackReply)
	assert.Len(t, replier.calls(), 1)

	// Posting the user's message is never limited.
	rec = doWidget(t, s, models.EndpointTurn, "soda")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReply_PanicShowsFallback(t *testing.T) {
	replier := &fakeReplier{reply: func(string) string { panic("boom") }}
	s := New(replier)

	rec := doWidget(t, s, models.EndpointReply, "burger")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), models.FallbackReply)
	assert.Contains(t, rec.Body.String(), `class="message bot"`)
}

func TestHandleTurn_TooLargeShowsFallback(t *testing.T) {
	s := New(&fakeReplier{})

	rec := doWidget(t, s, models.EndpointTurn, strings.Repeat("a", 70*1024))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), models.FallbackReply)
}

func TestHandleTurn_BlankMessage(t *testing.T) {
	replier := &fakeReplier{}
	s := New(replier)

	form := url.Values{"message": {"   \n  "}}
	rec := doRequest(t, s, http.MethodPost, models.EndpointTurn, echo.MIMEApplicationForm, form.Encode())

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, replier.calls())
}

func TestHandleIndex(t *testing.T) {
	s := New(&fakeReplier{})
	rec := doRequest(t, s, http.MethodGet, "/", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.True(t, strings.HasPrefix(body, "<!doctype html>"))
	assert.Contains(t, body, `hx-post="/chat/turn"`)
	assert.Contains(t, body, `hx-target="#messages"`)
	assert.Contains(t, body, `hx-disabled-elt=`)
	assert.Contains(t, body, "keydown[key==&#39;Enter&#39;&amp;&amp;!shiftKey]")
	assert.Contains(t, body, htmxSrc)

	// Error responses are swapped in and a request that cannot be sent
	// still ends with the fallback bubble.
	assert.Contains(t, body, `name="htmx-config"`)
	assert.Contains(t, body, "responseHandling")
	assert.Contains(t, body, `<template id="fallback">`)
	assert.Contains(t, body, models.FallbackReply)
	assert.Contains(t, body, `hx-on:htmx:send-error=`)
	assert.NotContains(t, body, `id="thinking"`)
}

func TestHandleHealth(t *testing.T) {
	s := New(&fakeReplier{})
	rec := doRequest(t, s, http.MethodGet, models.EndpointHealth, "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNotFound(t *testing.T) {
	s := New(&fakeReplier{})
	rec := doRequest(t, s, http.MethodGet, "/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	const limit = 3
	s := New(&fakeReplier{}, WithRateLimit(limit))

	for i := 0; i < limit; i++ {
		rec := doRequest(t, s, http.MethodPost, models.EndpointChat, echo.MIMEApplicationJSON, `{"message":"soda"}`)
		require.Equal(t, http.StatusOK, rec.Code, "request %d should be allowed", i+1)
	}

	rec := doRequest(t, s, http.MethodPost, models.EndpointChat, echo.MIMEApplicationJSON, `{"message":"soda"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many requests")

	// The page and health check are not limited.
	rec = doRequest(t, s, http.MethodGet, models.EndpointHealth, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitDisabled(t *testing.T) {
	s := New(&fakeReplier{}, WithRateLimit(0))
	for i := 0; i < DefaultRateLimit+5; i++ {
		rec := doRequest(t, s, http.MethodPost, models.EndpointChat, echo.MIMEApplicationJSON, `{"message":"salad"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRecoverFromPanic(t *testing.T) {
	replier := &fakeReplier{reply: func(string) string { panic("boom") }}
	s := New(replier)

	rec := doRequest(t, s, http.MethodPost, models.EndpointChat, echo.MIMEApplicationJSON, `{"message":"burger"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), models.FallbackReply)
}

func TestStart_GracefulShutdown(t *testing.T) {
	s := New(&fakeReplier{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx, "127.0.0.1:0")
	}()

	require.Eventually(t, func() bool { return s.E.ListenerAddr() != nil }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://%s%s", s.E.ListenerAddr(), models.EndpointHealth))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout):
		t.Fatal("server did not shut down")
	}
}
