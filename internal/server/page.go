package server

import (
	"encoding/json"

	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	html "maragu.dev/gomponents/html"

	"github.com/diogo/nutribuddy/internal/models"
)

const htmxSrc = "https://unpkg.com/htmx.org@2.0.4"

// htmxConfig makes htmx swap error responses too. Every error the widget can
// receive from this server is rendered as a fallback bubble.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"[23]..","swap":true},{"code":"[45]..","swap":true,"error":true}]}`

const (
	fallbackTemplateID = "fallback"

	appendFallbackJS  = "document.getElementById('messages').insertAdjacentHTML('beforeend', document.getElementById('fallback').innerHTML)"
	replaceFallbackJS = "this.outerHTML = document.getElementById('fallback').innerHTML"
)

const pageCSS = `
body { font-family: system-ui, sans-serif; background: #f4f6f8; margin: 0; }
.chat { max-width: 640px; margin: 2rem auto; background: #fff; border-radius: 12px; box-shadow: 0 2px 12px rgba(0,0,0,.08); display: flex; flex-direction: column; height: 80vh; }
.chat header { padding: 1rem 1.25rem; border-bottom: 1px solid #e5e7eb; font-weight: 600; }
#messages { flex: 1; overflow-y: auto; padding: 1rem 1.25rem; }
.message { margin: .5rem 0; padding: .6rem .9rem; border-radius: 10px; max-width: 80%; white-space: pre-wrap; }
.message.user { background: #dbeafe; margin-left: auto; }
.message.bot { background: #f3f4f6; }
.message .sender { display: block; font-size: .75rem; color: #6b7280; margin-bottom: .2rem; }
.message p { margin: 0; }
.message.pending p { color: #6b7280; font-style: italic; }
form { display: flex; gap: .5rem; padding: 1rem 1.25rem; border-top: 1px solid #e5e7eb; }
textarea { flex: 1; resize: none; padding: .5rem; border-radius: 8px; border: 1px solid #d1d5db; font: inherit; }
button { padding: .5rem 1rem; border-radius: 8px; border: 0; background: #16a34a; color: #fff; font-weight: 600; }
button:disabled, textarea:disabled { opacity: .6; }
`

// page renders the chat widget. Message text only ever reaches the document
// through g.Text, so it is escaped.
func page() g.Node {
	return html.Doctype(
		html.HTML(html.Lang("en"),
			html.Head(
				html.Meta(html.Charset("utf-8")),
				html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
				html.Meta(html.Name("htmx-config"), html.Content(htmxConfig)),
				html.TitleEl(g.Text("Nutrition Buddy")),
				html.Script(html.Src(htmxSrc)),
				html.StyleEl(g.Raw(pageCSS)),
			),
			html.Body(
				html.Div(html.Class("chat"),
					html.Header(g.Text("Nutrition Buddy")),
					html.Div(html.ID("messages")),
					chatForm(),
				),
				html.Template(html.ID(fallbackTemplateID), fallbackBubble()),
			),
		),
	)
}

// chatForm posts the user's message and appends the returned bubbles: the
// user's own message and a pending placeholder that fetches the reply. The
// controls stay disabled until that reply has landed, so only one turn runs
// at a time. Enter submits, Shift+Enter inserts a newline.
func chatForm() g.Node {
	return html.Form(
		html.ID("chat-form"),
		hx.Post(models.EndpointTurn),
		hx.Target("#messages"),
		hx.Swap("beforeend scroll:bottom"),
		hx.Trigger("submit, keydown[key=='Enter'&&!shiftKey] from:#message"),
		hx.DisabledElt("find textarea, find button"),
		hx.On("htmx:after-request", "if (event.detail.successful) this.reset()"),
		hx.On("htmx:send-error", appendFallbackJS),
		html.Textarea(
			html.ID("message"),
			html.Name("message"),
			html.Rows("2"),
			html.Placeholder("Tell me what you ate..."),
			html.AutoFocus(),
		),
		html.Button(html.Type("submit"), g.Text("Send")),
	)
}

// pendingBubble is the placeholder shown while the reply to message is
// fetched. It requests the reply as soon as it is swapped in and is replaced
// by whatever comes back, or by the fallback bubble when the request cannot
// be sent at all.
func pendingBubble(message string) g.Node {
	placeholder := models.NewPlaceholder()
	vals, _ := json.Marshal(models.ChatRequest{Message: message})

	return html.Div(
		html.ID("msg-"+placeholder.ID),
		html.Class("message bot pending"),
		hx.Post(models.EndpointReply),
		hx.Trigger("load"),
		hx.Swap("outerHTML scroll:#messages:bottom"),
		hx.Vals(string(vals)),
		hx.DisabledElt("#message, #chat-form button"),
		hx.On("htmx:send-error", replaceFallbackJS),
		html.Span(html.Class("sender"), g.Text(placeholder.Sender.Label())),
		html.P(g.Text(placeholder.Text)),
	)
}

// fallbackBubble has no ID since it may be rendered many times on one page.
func fallbackBubble() g.Node {
	return bubble(models.Message{Text: models.FallbackReply, Sender: models.SenderBot})
}

// bubble renders one message.
func bubble(msg models.Message) g.Node {
	return html.Div(
		g.If(msg.ID != "", html.ID("msg-"+msg.ID)),
		html.Class("message "+string(msg.Sender)),
		html.Span(html.Class("sender"), g.Text(msg.Sender.Label())),
		html.P(g.Text(msg.Text)),
	)
}
