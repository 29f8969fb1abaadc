package provider

import (
	"encoding/json"

	"github.com/voidlock/gaffer/internal/domain"
)

// streamEvent is one NDJSON line of the CLI's stream-json output.
// Event types:
//
//	{"type":"system","subtype":"init",...}         initialization, ignored
//	{"type":"assistant","message":{"content":[..]}} assistant turn content
//	{"type":"user",...}                            tool results, ignored
//	{"type":"result","subtype":"success",...}      final result
type streamEvent struct {
	Type    string         `json:"type"`
	Subtype string         `json:"subtype"`
	Message *streamMessage `json:"message"`
	Result  string         `json:"result"`
	IsError bool           `json:"is_error"`
}

type streamMessage struct {
	Content []streamContent `json:"content"`
}

type streamContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text"`
	Thinking string          `json:"thinking"`
	Name     string          `json:"name"`
	Input    json.RawMessage `json:"input"`
}

// parseStreamLine translates one stream-json line into domain messages.
// Unknown or malformed lines are skipped; the CLI interleaves
// diagnostics with the event stream and a bad line must not kill a
// long run.
func parseStreamLine(line []byte) []domain.Message {
	if len(line) == 0 || line[0] != '{' {
		return nil
	}

	var ev streamEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return nil
	}

	switch ev.Type {
	case "assistant":
		return parseAssistantEvent(&ev)
	case "result":
		if ev.IsError || ev.Subtype != "success" {
			detail := ev.Result
			if detail == "" {
				detail = "provider reported " + ev.Subtype
			}
			return []domain.Message{{Kind: domain.MessageError, Text: detail}}
		}
		return []domain.Message{{Kind: domain.MessageResult, Text: ev.Result}}
	default:
		return nil
	}
}

func parseAssistantEvent(ev *streamEvent) []domain.Message {
	if ev.Message == nil {
		return nil
	}

	var msgs []domain.Message
	for _, block := range ev.Message.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				msgs = append(msgs, domain.Message{Kind: domain.MessageText, Text: block.Text})
			}
		case "thinking":
			if block.Thinking != "" {
				msgs = append(msgs, domain.Message{Kind: domain.MessageThinking, Text: block.Thinking})
			}
		case "tool_use":
			msgs = append(msgs, domain.Message{
				Kind:      domain.MessageTool,
				ToolName:  block.Name,
				ToolInput: compactInput(block.Input),
			})
		}
	}
	return msgs
}

// compactInput renders a tool input as a single line, truncated so a
// huge file write does not flood the transcript.
func compactInput(raw json.RawMessage) string {
	const maxLen = 200
	if len(raw) == 0 {
		return ""
	}

	var buf []byte
	var compacted map[string]any
	if err := json.Unmarshal(raw, &compacted); err == nil {
		if buf, err = json.Marshal(compacted); err != nil {
			buf = raw
		}
	} else {
		buf = raw
	}

	s := string(buf)
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
