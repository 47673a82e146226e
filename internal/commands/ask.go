package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diogo/nutribuddy/internal/api"
	"github.com/diogo/nutribuddy/internal/chat"
	"github.com/diogo/nutribuddy/internal/config"
	apierrors "github.com/diogo/nutribuddy/internal/errors"
	"github.com/diogo/nutribuddy/internal/models"
	"github.com/diogo/nutribuddy/internal/render"
	"github.com/diogo/nutribuddy/internal/tui"
)

// askOptions holds the ask flags
type askOptions struct {
	file   string
	output string
	raw    bool
	copy   bool
}

// clipboardWrite is swapped out by tests
var clipboardWrite = clipboard.WriteAll

// NewAskCmd creates the ask command
func NewAskCmd(deps *Dependencies) *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send a single message and print the reply",
		Long: `Send one message to the backend and print the reply.

The message is taken from the arguments, from --file, or from stdin.

Examples:
  nutribuddy ask "I ate 2 chapatis and 1 dal"
  nutribuddy ask -f meals.txt
  echo "1 pizza and 1 soda" | nutribuddy ask --raw`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			message, err := readMessage(cmd, args, opts.file)
			if err != nil {
				return err
			}
			return runAsk(cmd, deps, cfg, message, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read the message from file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Save the reply to file")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print only the reply text")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the reply to the clipboard")

	return cmd
}

// readMessage resolves the message from --file, the arguments or stdin
func readMessage(cmd *cobra.Command, args []string, file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	}

	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func runAsk(cmd *cobra.Command, deps *Dependencies, cfg config.Config, message string, opts askOptions) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return errEmptyInput
	}

	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	client, closeClient, err := deps.chatClient(cfg.ServerURL, api.WithTimeout(cfg.Timeout()))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer closeClient()

	if cfg.Verbose && !opts.raw {
		fmt.Fprintf(stderr, "[verbose] Server: %s\n", cfg.ServerURL)
	}

	var spin *spinner
	if !opts.raw && isTerminal(stderr) {
		spin = newSpinner(stderr, models.PlaceholderText)
		spin.start()
	}

	startTime := time.Now()
	reply, err := client.SendMessage(cmd.Context(), message)
	requestDuration := time.Since(startTime)

	if err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		if !opts.raw {
			fmt.Fprintln(stderr, tui.FormatError(err))
		}
		return fmt.Errorf("request failed: %w", err)
	}
	if spin != nil {
		spin.stopWithSuccess("Done")
	}

	if cfg.Verbose && !opts.raw {
		fmt.Fprintf(stderr, "[verbose] Request took %s\n", requestDuration.Round(time.Millisecond))
	}

	reply = chat.Sanitize(reply)

	if opts.copy || cfg.CopyToClipboard {
		copyReply(stderr, reply, opts.raw)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(reply), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !opts.raw {
			fmt.Fprintln(stderr, successStyle().Render("✓ Reply saved to "+opts.output))
		}
		return nil
	}

	if opts.raw {
		fmt.Fprint(stdout, reply)
		return nil
	}

	fmt.Fprintln(stdout, renderReply(reply, terminalWidth(stdout)))
	return nil
}

func copyReply(stderr io.Writer, reply string, quiet bool) {
	if err := clipboardWrite(reply); err != nil {
		if !quiet {
			warn := lipgloss.NewStyle().Foreground(render.GetTUITheme().Error)
			fmt.Fprintln(stderr, warn.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		}
		return
	}
	if !quiet {
		fmt.Fprintln(stderr, successStyle().Render("✓ Copied to clipboard"))
	}
}

func successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(render.GetTUITheme().Primary)
}

// renderReply draws the reply as a labelled markdown bubble sized to width
func renderReply(reply string, width int) string {
	theme := render.GetTUITheme()

	bubbleWidth := width - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}

	label := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render("✦ " + models.SenderBot.Label())

	bubble := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Foreground(theme.Text).
		Padding(0, 1).
		MarginTop(1).
		Width(bubbleWidth).
		Render(render.Reply(reply, render.LoadOptions(bubbleWidth-4)))

	return label + "\n" + bubble
}

// terminalWidth returns the width of w when it is a terminal, or 80
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return render.DefaultWidth
}

// isTerminal reports whether w is connected to a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// errEmptyInput is returned when ask is given nothing to send
var errEmptyInput = fmt.Errorf("%w: pass it as an argument, with --file or on stdin", apierrors.ErrEmptyMessage)
