package conversation

import "fmt"

// MaxRetries caps how often a validated field is re-asked (or its
// confirmation re-tried) before the caller is told to switch to typed input.
const MaxRetries = 2

// StepKind discriminates the three kinds of conversation steps.
type StepKind int

const (
	// StepAsk asks a question and collects the answer.
	StepAsk StepKind = iota
	// StepConfirm asks the user to affirm or reject a previously captured value.
	StepConfirm
	// StepTerminal closes the conversation.
	StepTerminal
)

// FieldRules bundles the normalization, validation, and prompt texts for a
// field that is error-prone under voice transcription.
type FieldRules struct {
	Normalize func(string) string
	Valid     func(string) bool

	// RetryPrompt is returned when validation fails below the retry cap.
	RetryPrompt string
	// TroublePrompt is returned when validation failures reach the cap.
	TroublePrompt string
	// ConfirmPrompt echoes the canonical value; must contain one %s verb.
	ConfirmPrompt string
	// ConfirmTroublePrompt is returned when confirmation rejections reach the cap.
	ConfirmTroublePrompt string
	// ReaskPrompt is returned after a rejected confirmation below the cap.
	ReaskPrompt string
}

// Step is one entry in the scripted sequence.
type Step struct {
	Kind     StepKind
	Field    string // collected field name; empty for the terminal step
	Question string // prompt for ask steps, farewell for the terminal step
	Rules    *FieldRules
}

// Script is the fixed, ordered conversation sequence. It is immutable
// process-wide state; every session walks the same script.
type Script []Step

// DefaultScript returns the lead-intake sequence:
// name, email (+confirm), phone (+confirm), interest, done.
func DefaultScript() Script {
	emailRules := &FieldRules{
		Normalize:            NormalizeEmail,
		Valid:                IsValidEmail,
		RetryPrompt:          "I couldn't understand that email address. Please say it clearly, for example: john at gmail dot com. What is your email?",
		TroublePrompt:        "I'm having trouble understanding the email. Please type it in the chat box instead.",
		ConfirmPrompt:        "Your email is %s. Is this correct? Please say yes correct or no.",
		ConfirmTroublePrompt: "I'm having trouble with the email. Please type it in the chat box instead.",
		ReaskPrompt:          "No problem. Let's try again. What is your email address?",
	}
	phoneRules := &FieldRules{
		Normalize:            NormalizePhone,
		Valid:                IsValidPhone,
		RetryPrompt:          "I couldn't get a valid phone number. Please say your 10-digit phone number clearly. What is your phone number?",
		TroublePrompt:        "I'm having trouble understanding the phone number. Please type it in the chat box instead.",
		ConfirmPrompt:        "Your phone number is %s. Is this correct? Please say yes correct or no.",
		ConfirmTroublePrompt: "I'm having trouble with the phone number. Please type it in the chat box instead.",
		ReaskPrompt:          "No problem. Let's try again. What is your phone number?",
	}

	return Script{
		{Kind: StepAsk, Field: "name", Question: "What is your name?"},
		{Kind: StepAsk, Field: "email", Question: "What is your email address?", Rules: emailRules},
		{Kind: StepConfirm, Field: "email", Rules: emailRules},
		{Kind: StepAsk, Field: "phone", Question: "What is your phone number?", Rules: phoneRules},
		{Kind: StepConfirm, Field: "phone", Rules: phoneRules},
		{Kind: StepAsk, Field: "interest", Question: "What service are you interested in?"},
		{Kind: StepTerminal, Question: "Thank you for your information! Our team will contact you soon."},
	}
}

// TerminalIndex returns the index of the terminal step.
func (sc Script) TerminalIndex() int {
	return len(sc) - 1
}

// AskIndex returns the index of the ask step that collects field.
func (sc Script) AskIndex(field string) int {
	for i, step := range sc {
		if step.Kind == StepAsk && step.Field == field {
			return i
		}
	}
	panic(fmt.Sprintf("conversation: no ask step for field %q", field))
}
