package flow

import "strings"

// CallbackType is the kind of a prompt field.
type CallbackType string

const (
	// CallbackTextOutput is informational text.
	CallbackTextOutput CallbackType = "TextOutputCallback"
	// CallbackName is a plain text input.
	CallbackName CallbackType = "NameCallback"
	// CallbackPassword is a masked secret input.
	CallbackPassword CallbackType = "PasswordCallback"
)

// Callback is one field of an interactive prompt. On the way out Prompt carries the text to show;
// on the way back Value carries what the user submitted.
type Callback struct {
	Type   CallbackType
	Prompt string
	Value  string
}

// TextOutput returns an informational field.
func TextOutput(message string) Callback {
	return Callback{Type: CallbackTextOutput, Prompt: message}
}

// NameInput returns a plain text input field.
func NameInput(prompt string) Callback {
	return Callback{Type: CallbackName, Prompt: prompt}
}

// PasswordInput returns a masked input field.
func PasswordInput(prompt string) Callback {
	return Callback{Type: CallbackPassword, Prompt: prompt}
}

// submittedValue returns the value of the first callback of type typ, if it is not blank.
func submittedValue(callbacks []Callback, typ CallbackType) (string, bool) {
	for _, cb := range callbacks {
		if cb.Type != typ {
			continue
		}
		v := strings.TrimSpace(cb.Value)
		return v, v != ""
	}
	return "", false
}
