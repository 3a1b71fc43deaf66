package conversation

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omarjafor/voice-chatbot-lead-backend/internal/session"
	"github.com/omarjafor/voice-chatbot-lead-backend/internal/storage"
)

var (
	// ErrSessionNotFound is returned when the session id is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrConversationComplete is returned when a message arrives for a
	// session that already reached the terminal step.
	ErrConversationComplete = errors.New("conversation already complete")
)

// Reply is the structured outcome of one conversation turn.
type Reply struct {
	SessionID       string `json:"session_id"`
	AgentMessage    string `json:"agent_message"`
	IsComplete      bool   `json:"is_complete"`
	CurrentStep     int    `json:"current_step"`
	ValidationError string `json:"validation_error,omitempty"`
	AutoListen      bool   `json:"should_auto_listen"`
}

// LeadStore persists completed leads.
type LeadStore interface {
	SaveLead(storage.Lead) error
}

// Machine walks sessions through the scripted intake sequence. It is the only
// component that mutates session state; all mutation happens inside
// Store.Update, so turns for the same session are serialized.
type Machine struct {
	sessions *session.Store
	leads    LeadStore
	script   Script
	logger   *slog.Logger
}

// NewMachine creates a Machine over the default script.
func NewMachine(sessions *session.Store, leads LeadStore) *Machine {
	return &Machine{
		sessions: sessions,
		leads:    leads,
		script:   DefaultScript(),
		logger:   slog.Default(),
	}
}

// Start allocates a new session at step 0 and returns the opening prompt.
func (m *Machine) Start() Reply {
	sess := session.New(uuid.New().String())
	m.sessions.Put(sess)
	m.logger.Info("session started", "session_id", sess.ID)
	return Reply{
		SessionID:    sess.ID,
		AgentMessage: m.script[0].Question,
		CurrentStep:  0,
		AutoListen:   true,
	}
}

// Advance applies one turn of user input to the session and returns the next
// prompt plus control flags.
func (m *Machine) Advance(sessionID, text string) (Reply, error) {
	var reply Reply
	err := m.sessions.Update(sessionID, func(sess *session.Session) error {
		if sess.CurrentStep >= m.script.TerminalIndex() {
			return ErrConversationComplete
		}
		r, err := m.advance(sess, strings.TrimSpace(text))
		if err != nil {
			return err
		}
		reply = r
		return nil
	})
	if errors.Is(err, session.ErrNotFound) {
		return Reply{}, ErrSessionNotFound
	}
	if err != nil {
		return Reply{}, err
	}
	return reply, nil
}

func (m *Machine) advance(sess *session.Session, input string) (Reply, error) {
	step := m.script[sess.CurrentStep]
	switch {
	case step.Kind == StepConfirm:
		return m.confirmTurn(sess, step, input), nil
	case step.Rules != nil:
		return m.validatedTurn(sess, step, input), nil
	default:
		sess.Collected[step.Field] = input
		sess.CurrentStep++
		return m.nextPrompt(sess)
	}
}

// confirmTurn handles a yes/no turn for a previously captured value.
// A rejection sends the session back to the step that asked for the value;
// once rejections hit the cap, the reply tells the caller to switch to typed
// input without resetting the counter.
func (m *Machine) confirmTurn(sess *session.Session, step Step, input string) Reply {
	if IsAffirmative(input) {
		sess.Retries[step.Field] = 0
		sess.CurrentStep++
		next := m.script[sess.CurrentStep]
		return Reply{
			SessionID:    sess.ID,
			AgentMessage: next.Question,
			CurrentStep:  sess.CurrentStep,
			AutoListen:   true,
		}
	}

	sess.Retries[step.Field]++
	askIdx := m.script.AskIndex(step.Field)
	sess.CurrentStep = askIdx

	if sess.Retries[step.Field] >= MaxRetries {
		return Reply{
			SessionID:       sess.ID,
			AgentMessage:    step.Rules.ConfirmTroublePrompt,
			CurrentStep:     askIdx,
			ValidationError: "max_retries_" + step.Field,
			AutoListen:      false,
		}
	}

	delete(sess.Collected, step.Field)
	return Reply{
		SessionID:    sess.ID,
		AgentMessage: step.Rules.ReaskPrompt,
		CurrentStep:  askIdx,
		AutoListen:   true,
	}
}

// validatedTurn normalizes and validates input for an error-prone field.
func (m *Machine) validatedTurn(sess *session.Session, step Step, input string) Reply {
	value := step.Rules.Normalize(input)
	if !step.Rules.Valid(value) {
		sess.Retries[step.Field]++
		if sess.Retries[step.Field] >= MaxRetries {
			return Reply{
				SessionID:       sess.ID,
				AgentMessage:    step.Rules.TroublePrompt,
				CurrentStep:     sess.CurrentStep,
				ValidationError: "max_retries_" + step.Field,
				AutoListen:      false,
			}
		}
		return Reply{
			SessionID:       sess.ID,
			AgentMessage:    step.Rules.RetryPrompt,
			CurrentStep:     sess.CurrentStep,
			ValidationError: "invalid_" + step.Field,
			AutoListen:      true,
		}
	}

	sess.Retries[step.Field] = 0
	sess.Collected[step.Field] = value
	sess.CurrentStep++
	return Reply{
		SessionID:    sess.ID,
		AgentMessage: fmt.Sprintf(step.Rules.ConfirmPrompt, value),
		CurrentStep:  sess.CurrentStep,
		AutoListen:   true,
	}
}

// nextPrompt returns the prompt for the step the session just advanced to,
// materializing the lead when the terminal step is reached.
func (m *Machine) nextPrompt(sess *session.Session) (Reply, error) {
	next := m.script[sess.CurrentStep]
	if next.Kind != StepTerminal {
		return Reply{
			SessionID:    sess.ID,
			AgentMessage: next.Question,
			CurrentStep:  sess.CurrentStep,
			AutoListen:   true,
		}, nil
	}

	lead := storage.Lead{
		ID:        uuid.New().String(),
		SessionID: sess.ID,
		Name:      sess.Collected["name"],
		Email:     sess.Collected["email"],
		Phone:     sess.Collected["phone"],
		Interest:  sess.Collected["interest"],
		CreatedAt: time.Now().UTC(),
	}
	if err := m.leads.SaveLead(lead); err != nil {
		// Leave the session on the interest step so the turn can be retried.
		sess.CurrentStep--
		return Reply{}, fmt.Errorf("saving lead: %w", err)
	}
	m.logger.Info("lead captured", "lead_id", lead.ID, "session_id", sess.ID)

	return Reply{
		SessionID:    sess.ID,
		AgentMessage: next.Question,
		IsComplete:   true,
		CurrentStep:  sess.CurrentStep,
		AutoListen:   false,
	}, nil
}
