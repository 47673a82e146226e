package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/nutribuddy/internal/api"
	apierrors "github.com/diogo/nutribuddy/internal/errors"
)

func TestAsk_Raw(t *testing.T) {
	setupHome(t)
	client := &api.MockChatClient{Reply: "A **balanced** meal!"}

	out, stderr, err := execute(context.Background(), &Dependencies{Client: client}, "",
		"ask", "--raw", "I ate 2 chapatis")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if out != "A **balanced** meal!" {
		t.Errorf("raw output = %q", out)
	}
	if stderr != "" {
		t.Errorf("raw mode should keep stderr quiet, got %q", stderr)
	}
	if calls := client.Calls(); len(calls) != 1 || calls[0] != "I ate 2 chapatis" {
		t.Errorf("calls = %v", calls)
	}
	if client.CloseCalled {
		t.Error("an injected client must not be closed")
	}
}

func TestAsk_Input(t *testing.T) {
	setupHome(t)

	file := filepath.Join(t.TempDir(), "meal.txt")
	if err := os.WriteFile(file, []byte("1 pizza\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{name: "joined args", args: []string{"2", "apples"}, want: "2 apples"},
		{name: "stdin", stdin: "  1 banana\n", want: "1 banana"},
		{name: "file", args: []string{"-f", file}, want: "1 pizza"},
		{name: "file wins over args", args: []string{"-f", file, "ignored"}, want: "1 pizza"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &api.MockChatClient{Reply: "ok"}
			args := append([]string{"ask", "--raw"}, tt.args...)

			if _, _, err := execute(context.Background(), &Dependencies{Client: client}, tt.stdin, args...); err != nil {
				t.Fatalf("ask failed: %v", err)
			}
			if calls := client.Calls(); len(calls) != 1 || calls[0] != tt.want {
				t.Errorf("calls = %q, want [%q]", calls, tt.want)
			}
		})
	}
}

func TestAsk_MissingFile(t *testing.T) {
	setupHome(t)
	client := &api.MockChatClient{Reply: "ok"}

	_, _, err := execute(context.Background(), &Dependencies{Client: client}, "",
		"ask", "-f", filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil || !strings.Contains(err.Error(), "failed to read file") {
		t.Errorf("expected read error, got %v", err)
	}
	if len(client.Calls()) != 0 {
		t.Error("no request expected")
	}
}

func TestAsk_EmptyMessage(t *testing.T) {
	setupHome(t)
	client := &api.MockChatClient{Reply: "ok"}

	_, _, err := execute(context.Background(), &Dependencies{Client: client}, "   \n", "ask")
	if !errors.Is(err, apierrors.ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if len(client.Calls()) != 0 {
		t.Error("no request expected")
	}
}

func TestAsk_ClientError(t *testing.T) {
	setupHome(t)
	client := &api.MockChatClient{
		Err: apierrors.NewNetworkError("send message", errors.New("connection refused")),
	}

	out, stderr, err := execute(context.Background(), &Dependencies{Client: client}, "", "ask", "1 egg")
	if !errors.Is(err, apierrors.ErrReplyUnavailable) {
		t.Errorf("expected a reply-unavailable error, got %v", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty, got %q", out)
	}
	if !strings.Contains(stderr, "connection refused") || !strings.Contains(stderr, "nutribuddy serve") {
		t.Errorf("stderr should explain the failure, got %q", stderr)
	}
}

func TestAsk_Decorated(t *testing.T) {
	setupHome(t)
	client := &api.MockChatClient{Reply: "Eat more **fiber**."}

	out, _, err := execute(context.Background(), &Dependencies{Client: client}, "", "ask", "1 pizza")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if !strings.Contains(out, "Nutrition Buddy") {
		t.Errorf("decorated output should carry the bot label:\n%s", out)
	}
	if !strings.Contains(out, "fiber") {
		t.Errorf("decorated output should contain the reply:\n%s", out)
	}
}

func TestAsk_SanitizesReply(t *testing.T) {
	setupHome(t)
	client := &api.MockChatClient{Reply: "\x1b[31mred\x1b[0m alert\a"}

	out, _, err := execute(context.Background(), &Dependencies{Client: client}, "", "ask", "--raw", "1 soda")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if out != "red alert" {
		t.Errorf("output = %q, want %q", out, "red alert")
	}
}

func TestAsk_Output(t *testing.T) {
	setupHome(t)
	client := &api.MockChatClient{Reply: "saved reply"}
	path := filepath.Join(t.TempDir(), "reply.md")

	out, stderr, err := execute(context.Background(), &Dependencies{Client: client}, "",
		"ask", "-o", path, "1 milk")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty when writing to a file, got %q", out)
	}
	if !strings.Contains(stderr, "Reply saved to") {
		t.Errorf("stderr = %q", stderr)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "saved reply" {
		t.Errorf("file content = %q", data)
	}
}

func TestAsk_Copy(t *testing.T) {
	setupHome(t)

	var copied string
	old := clipboardWrite
	defer func() { clipboardWrite = old }()

	clipboardWrite = func(text string) error {
		copied = text
		return nil
	}

	client := &api.MockChatClient{Reply: "copy me"}
	_, stderr, err := execute(context.Background(), &Dependencies{Client: client}, "", "ask", "--copy", "1 salad")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if copied != "copy me" {
		t.Errorf("copied = %q", copied)
	}
	if !strings.Contains(stderr, "Copied to clipboard") {
		t.Errorf("stderr = %q", stderr)
	}

	clipboardWrite = func(string) error { return errors.New("no clipboard") }
	_, stderr, err = execute(context.Background(), &Dependencies{Client: client}, "", "ask", "--copy", "1 salad")
	if err != nil {
		t.Fatalf("a clipboard failure must not fail the command: %v", err)
	}
	if !strings.Contains(stderr, "no clipboard") {
		t.Errorf("stderr should report the clipboard failure, got %q", stderr)
	}
}

func TestRenderReply_ClampsWidth(t *testing.T) {
	setupHome(t)

	narrow := renderReply("hi", 10)
	if !strings.Contains(narrow, "hi") {
		t.Errorf("rendered reply missing text:\n%s", narrow)
	}
	if w := terminalWidth(&strings.Builder{}); w != 80 {
		t.Errorf("terminalWidth(non-file) = %d, want 80", w)
	}
}
