package internal

import (
	"encoding/json"
	"strings"
)

// ChatActionKind tags the variant held by a ChatAction
type ChatActionKind int

const (
	ActionNone ChatActionKind = iota
	ActionConversionIntent
)

const conversionIntentType = "conversion_intent"

// ChatAction is None or ConversionIntent. Anything malformed decodes as None.
type ChatAction struct {
	Kind   ChatActionKind
	Intent *ChatConversionIntent
}

// NoAction is the zero ChatAction.
var NoAction = ChatAction{Kind: ActionNone}

type rawChatAction struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type rawIntentData struct {
	ConversionType *string `json:"conversion_type"`
	TargetFormat   *string `json:"target_format"`
}

// ParseChatAction validates the optional "action" object of a chat response.
func ParseChatAction(raw json.RawMessage) ChatAction {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return NoAction
	}

	var action rawChatAction
	if err := json.Unmarshal(raw, &action); err != nil {
		LogDebug("Ignoring malformed chat action: %v", err)
		return NoAction
	}
	if action.Type != conversionIntentType {
		if action.Type != "" {
			LogDebug("Ignoring unknown chat action type %q", action.Type)
		}
		return NoAction
	}

	var data rawIntentData
	if err := json.Unmarshal(action.Data, &data); err != nil || data.ConversionType == nil || data.TargetFormat == nil {
		LogDebug("Ignoring conversion_intent with malformed data")
		return NoAction
	}

	conversionType, err := ParseConversionType(*data.ConversionType)
	if err != nil {
		LogDebug("Ignoring conversion_intent for unknown type %q", *data.ConversionType)
		return NoAction
	}
	target := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(*data.TargetFormat), "."))
	if target == "" {
		return NoAction
	}

	return ChatAction{
		Kind: ActionConversionIntent,
		Intent: &ChatConversionIntent{
			ConversionType: conversionType,
			TargetFormat:   target,
		},
	}
}
