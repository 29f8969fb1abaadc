package domain

// MessageKind discriminates provider stream messages.
type MessageKind string

const (
	MessageText     MessageKind = "text"     // Assistant prose
	MessageTool     MessageKind = "tool"     // Tool invocation
	MessageThinking MessageKind = "thinking" // Reasoning chunk
	MessageError    MessageKind = "error"    // Backend-reported error
	MessageResult   MessageKind = "result"   // End-of-turn marker
)

// Message is one element of a provider's streamed response.
// Fields are ordered to minimize memory padding.
type Message struct {
	Kind      MessageKind
	Text      string // Prose, thinking text, error detail, or result summary
	ToolName  string // Set for MessageTool
	ToolInput string // Compact rendering of the tool input, set for MessageTool
}

// ExecuteRequest describes one conversation turn sent to a provider.
type ExecuteRequest struct {
	Prompt   string
	Model    string
	WorkDir  string
	Thinking string
	Images   []ImageAttachment
}
