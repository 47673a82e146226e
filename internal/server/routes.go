package server

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"
	g "maragu.dev/gomponents"

	"github.com/diogo/nutribuddy/internal/models"
)

// handleChat answers POST /api/chat. It always responds 200 with a reply:
// a body that is not JSON, or whose message is not a string, counts as an
// empty message.
func (s *Server) handleChat(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	reply := s.reply(c.Request().Context(), messageFromJSON(body))
	return c.JSON(http.StatusOK, models.ChatResponse{Reply: reply})
}

func messageFromJSON(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	result := gjson.GetBytes(body, "message")
	if result.Type != gjson.String {
		return ""
	}
	return result.Str
}

// handleTurn answers the widget form with the user's bubble and a pending
// placeholder. The placeholder fetches the reply itself through handleReply,
// so the user's message is on screen before the model is called.
func (s *Server) handleTurn(c echo.Context) error {
	message := strings.TrimSpace(c.FormValue("message"))
	if message == "" {
		return c.NoContent(http.StatusNoContent)
	}

	return render(c, http.StatusOK, g.Group([]g.Node{
		bubble(models.NewMessage(message, models.SenderUser)),
		pendingBubble(message),
	}))
}

// handleReply answers a pending placeholder with the bot bubble that
// replaces it.
func (s *Server) handleReply(c echo.Context) error {
	reply := s.reply(c.Request().Context(), c.FormValue("message"))
	return render(c, http.StatusOK, bubble(models.NewMessage(reply, models.SenderBot)))
}

// renderFallback answers a widget request that failed with the fallback
// bubble.
func renderFallback(c echo.Context, status int) error {
	return render(c, status, fallbackBubble())
}

func (s *Server) handleIndex(c echo.Context) error {
	return render(c, http.StatusOK, page())
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) reply(ctx context.Context, message string) string {
	ctx, cancel := context.WithTimeout(ctx, s.replyTimeout)
	defer cancel()
	return s.replier.Reply(ctx, message)
}

func render(c echo.Context, status int, node g.Node) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return node.Render(c.Response())
}
