package internal

import "strings"

// HintCategory is a best-effort reading of a conversion error message
type HintCategory int

const (
	HintGeneric HintCategory = iota
	HintUnsupportedFormat
	HintFileTooLarge
	HintCorruptedFile
	HintServerUnavailable
)

func (h HintCategory) String() string {
	switch h {
	case HintUnsupportedFormat:
		return "unsupported_format"
	case HintFileTooLarge:
		return "file_too_large"
	case HintCorruptedFile:
		return "corrupted_file"
	case HintServerUnavailable:
		return "server_unavailable"
	default:
		return "generic"
	}
}

// Keyword order decides ties. The bare "format" keyword comes last because it
// appears in many unrelated messages.
var hintKeywords = []struct {
	hint     HintCategory
	keywords []string
}{
	{HintFileTooLarge, []string{"too large", "file size", "exceeds", "size limit", "413", "too big"}},
	{HintCorruptedFile, []string{"corrupt", "damaged", "invalid file", "could not read", "cannot read", "unreadable", "truncated"}},
	{HintUnsupportedFormat, []string{"unsupported", "not supported", "invalid format", "unknown format"}},
	{HintServerUnavailable, []string{"unavailable", "503", "timed out", "timeout", "busy", "no response", "server error", "connection"}},
	{HintUnsupportedFormat, []string{"format"}},
}

// ClassifyHint maps free-form error text to a hint category by substring matching.
func ClassifyHint(message string) HintCategory {
	lower := strings.ToLower(message)
	if lower == "" {
		return HintGeneric
	}
	for _, group := range hintKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.hint
			}
		}
	}
	return HintGeneric
}

// HintMessage is the friendlier sentence shown for a category.
func HintMessage(h HintCategory) string {
	switch h {
	case HintUnsupportedFormat:
		return "This file format isn't supported for the requested conversion. Try a different file or target format."
	case HintFileTooLarge:
		return "The file is too large to convert. Try compressing it or uploading a smaller file."
	case HintCorruptedFile:
		return "The file appears to be corrupted or unreadable. Make sure your file is not corrupted before uploading."
	case HintServerUnavailable:
		return "The conversion service is busy or unavailable right now. Please try again later."
	default:
		return "Something went wrong while converting your file. Please try again."
	}
}

// ChatConversionTimeoutMessage is shown when a chat-triggered conversion outlives its deadline.
const ChatConversionTimeoutMessage = "The conversion request timed out. The file might be too large or the server is busy."

// FriendlyConversionError composes the chat-side failure text: the hint
// sentence followed by the underlying message.
func FriendlyConversionError(err error) (HintCategory, string) {
	if err == nil {
		return HintGeneric, ""
	}
	raw := UserMessage(err, ConversionFailedMessage)
	var hint HintCategory
	switch ErrorKindOf(err) {
	case KindRequestTimedOut:
		return HintServerUnavailable, ChatConversionTimeoutMessage
	case KindServiceUnavailable:
		return HintServerUnavailable, HintMessage(HintServerUnavailable)
	case KindNetwork:
		hint = HintServerUnavailable
	default:
		hint = ClassifyHint(raw)
	}
	if hint == HintGeneric {
		return hint, raw
	}
	return hint, HintMessage(hint) + " (" + raw + ")"
}
