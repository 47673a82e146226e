// Package models contains data types and constants for the nutribuddy chat.
package models

// Endpoints served by the backend
const (
	EndpointChat   = "/api/chat"
	EndpointTurn   = "/chat/turn"
	EndpointReply  = "/chat/reply"
	EndpointHealth = "/healthz"
)

// Default backend location used by the terminal client
const DefaultServerURL = "http://localhost:3000"

// Fixed user-facing strings
const (
	// PlaceholderText is shown in the transient bot bubble while a reply is pending
	PlaceholderText = "Thinking..."

	// FallbackReply replaces the reply whenever it cannot be obtained for any reason
	FallbackReply = "Sorry, I couldn't get a reply right now. Please try again."

	// EmptyMessageReply is the backend answer to an empty message
	EmptyMessageReply = "Please tell me what you ate so I can help."

	// BackendFailureReply is the backend answer when the model call fails
	BackendFailureReply = "There was a problem talking to the AI server. Please try again later."

	// NoFoodsDetected is the nutrition summary when no known food is found
	NoFoodsDetected = "I could not detect any known foods from the text."
)

// Model represents a Gemini model usable by the backend
type Model struct {
	Name        string
	Description string
}

// Available models
var (
	// ModelUnspecified lets the backend fall back to its configured default
	ModelUnspecified = Model{Name: "unspecified"}

	ModelFlash = Model{
		Name:        "gemini-2.5-flash",
		Description: "Fast answers, the default",
	}

	ModelFlashLite = Model{
		Name:        "gemini-2.5-flash-lite",
		Description: "Cheapest and quickest",
	}

	ModelPro = Model{
		Name:        "gemini-2.5-pro",
		Description: "Most capable, slower",
	}

	// DefaultModel is the recommended default
	DefaultModel = ModelFlash
)

// AllModels returns a list of all available models
func AllModels() []Model {
	return []Model{ModelFlash, ModelFlashLite, ModelPro}
}

// ModelFromName returns a Model by its name or short alias
func ModelFromName(name string) Model {
	switch name {
	case "fast", "flash", "gemini-2.5-flash":
		return ModelFlash
	case "lite", "flash-lite", "gemini-2.5-flash-lite":
		return ModelFlashLite
	case "pro", "gemini-2.5-pro":
		return ModelPro
	default:
		return ModelUnspecified
	}
}

// DefaultHeaders returns the default headers for chat requests
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "nutribuddy-cli",
	}
}
