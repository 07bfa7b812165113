// Package session implements the per-user conversational state machine:
// onboarding, gift code entry, channel registration, and the admin
// broadcast composer.
package session

import (
	"fmt"
	"strconv"
	"strings"
)

// Step identifies a conversational state. The idle state is the absence of a
// session entry; StepDone in a transition result means "clear the session".
type Step string

const (
	StepDone Step = ""

	// Onboarding.
	StepAccountProof Step = "account_proof"
	StepDepositProof Step = "deposit_proof"
	StepShareAck     Step = "share_ack"

	// Standalone flows.
	StepGiftCodeEntry Step = "giftcode_entry"
	StepGiftCodeValue Step = "giftcode_value"
	StepChannelLink   Step = "channel_link"

	// Broadcast composer.
	StepBroadcastContent Step = "broadcast_content"
	StepBroadcastCaption Step = "broadcast_caption"
	StepButtonDecision   Step = "button_decision"
	StepButtonText       Step = "button_text"
	StepButtonURL        Step = "button_url"
	StepReadyToSend      Step = "ready_to_send"
)

// EventKind classifies an inbound update.
type EventKind int

const (
	EventText EventKind = iota
	EventPhoto
	EventVideo
	EventDocument
	EventCallback
)

// Callback data values consumed by the composer.
const (
	CallbackAddButton       = "broadcast_add_button"
	CallbackNoButton        = "broadcast_no_button"
	CallbackConfirmSend     = "confirm_broadcast"
	CallbackCancelBroadcast = "cancel_broadcast"
)

// Event is one inbound message or button press, reduced to what the machine
// needs to decide a transition.
type Event struct {
	Kind    EventKind
	Text    string
	MediaID string
	Data    string
}

// Action tells the caller which side effect to perform after a transition.
type Action int

const (
	ActionNone Action = iota
	// ActionReprompt means the event was rejected; re-ask without advancing.
	ActionReprompt
	ActionPromptDeposit
	ActionPromptShare
	ActionCompleteOnboarding
	ActionRedeemGiftCode
	ActionCreateGiftCode
	ActionRegisterChannel
	ActionAskCaption
	ActionAskButtonDecision
	ActionAskButtonText
	ActionAskButtonURL
	ActionPreviewBroadcast
	ActionSendBroadcast
	ActionCancelBroadcast
)

// Audience selects the broadcast fan-out target.
type Audience string

const (
	AudienceUsers    Audience = "users"
	AudienceChannels Audience = "channels"
)

// Draft accumulates the broadcast composer's fields across steps.
type Draft struct {
	Audience   Audience
	Text       string
	MediaID    string
	MediaKind  EventKind
	Caption    string
	ButtonText string
	ButtonURL  string
}

// Session is one user's transient conversational state. Stored in-process
// only; a restart drops it and the user resumes by re-triggering the prompt.
type Session struct {
	Step      Step
	InvitedBy int64
	Draft     Draft
}

// Result describes the outcome of advancing a session.
type Result struct {
	// Action is the side effect the caller must perform.
	Action Action
	// Next is the step the session moved to; StepDone clears the session.
	Next Step
	// Advanced is false when the event was rejected by the step's guard.
	Advanced bool
}

type rule struct {
	kinds  []EventKind
	guard  func(Event) bool
	data   string // required callback data, when kind is EventCallback
	apply  func(*Session, Event)
	action Action
	next   Step
}

// Machine dispatches events against the transition table.
type Machine struct {
	transitions map[Step][]rule
}

// NewMachine builds the transition table and validates it: every rule must
// point at a step the table knows (or at StepDone), so an illegal transition
// is a construction-time error rather than a silent fallthrough.
func NewMachine() (*Machine, error) {
	m := &Machine{transitions: buildTransitions()}

	for step, rules := range m.transitions {
		if len(rules) == 0 {
			return nil, fmt.Errorf("step %q has no transitions", step)
		}
		for _, r := range rules {
			if len(r.kinds) == 0 {
				return nil, fmt.Errorf("step %q has a rule without event kinds", step)
			}
			if r.next == StepDone {
				continue
			}
			if _, ok := m.transitions[r.next]; !ok {
				return nil, fmt.Errorf("step %q points at unknown step %q", step, r.next)
			}
		}
	}

	return m, nil
}

// Advance matches the event against the session's current step. A matching
// rule mutates the draft and moves the session forward; no match re-prompts
// without advancing.
func (m *Machine) Advance(sess *Session, ev Event) Result {
	rules, ok := m.transitions[sess.Step]
	if !ok {
		return Result{Action: ActionNone, Next: sess.Step}
	}

	for _, r := range rules {
		if !kindMatches(r.kinds, ev.Kind) {
			continue
		}
		if r.data != "" && ev.Data != r.data {
			continue
		}
		if r.guard != nil && !r.guard(ev) {
			continue
		}

		if r.apply != nil {
			r.apply(sess, ev)
		}
		sess.Step = r.next

		return Result{Action: r.action, Next: r.next, Advanced: true}
	}

	return Result{Action: ActionReprompt, Next: sess.Step}
}

func buildTransitions() map[Step][]rule {
	return map[Step][]rule{
		StepAccountProof: {
			{
				kinds:  []EventKind{EventPhoto},
				action: ActionPromptDeposit,
				next:   StepDepositProof,
			},
		},
		StepDepositProof: {
			{
				kinds:  []EventKind{EventPhoto},
				action: ActionPromptShare,
				next:   StepShareAck,
			},
		},
		StepShareAck: {
			{
				kinds:  []EventKind{EventText, EventPhoto, EventVideo, EventDocument, EventCallback},
				action: ActionCompleteOnboarding,
				next:   StepDone,
			},
		},
		StepGiftCodeEntry: {
			{
				kinds: []EventKind{EventText},
				guard: func(ev Event) bool { return strings.TrimSpace(ev.Text) != "" },
				apply: func(s *Session, ev Event) {
					s.Draft.Text = strings.ToUpper(strings.TrimSpace(ev.Text))
				},
				action: ActionRedeemGiftCode,
				next:   StepDone,
			},
		},
		StepGiftCodeValue: {
			{
				kinds: []EventKind{EventText},
				guard: func(ev Event) bool {
					value, err := strconv.Atoi(strings.TrimSpace(ev.Text))
					return err == nil && value > 0
				},
				apply: func(s *Session, ev Event) {
					s.Draft.Text = strings.TrimSpace(ev.Text)
				},
				action: ActionCreateGiftCode,
				next:   StepDone,
			},
		},
		StepChannelLink: {
			{
				kinds: []EventKind{EventText},
				guard: func(ev Event) bool { return strings.Contains(ev.Text, "t.me/") },
				apply: func(s *Session, ev Event) {
					s.Draft.Text = strings.TrimSpace(ev.Text)
				},
				action: ActionRegisterChannel,
				next:   StepDone,
			},
		},
		StepBroadcastContent: {
			{
				kinds: []EventKind{EventPhoto, EventVideo, EventDocument},
				apply: func(s *Session, ev Event) {
					s.Draft.MediaID = ev.MediaID
					s.Draft.MediaKind = ev.Kind
				},
				action: ActionAskCaption,
				next:   StepBroadcastCaption,
			},
			{
				kinds: []EventKind{EventText},
				guard: func(ev Event) bool { return strings.TrimSpace(ev.Text) != "" },
				apply: func(s *Session, ev Event) {
					s.Draft.Text = ev.Text
				},
				action: ActionAskButtonDecision,
				next:   StepButtonDecision,
			},
		},
		StepBroadcastCaption: {
			{
				kinds: []EventKind{EventText},
				apply: func(s *Session, ev Event) {
					s.Draft.Caption = ev.Text
				},
				action: ActionAskButtonDecision,
				next:   StepButtonDecision,
			},
		},
		StepButtonDecision: {
			{
				kinds:  []EventKind{EventCallback},
				data:   CallbackAddButton,
				action: ActionAskButtonText,
				next:   StepButtonText,
			},
			{
				kinds:  []EventKind{EventCallback},
				data:   CallbackNoButton,
				action: ActionPreviewBroadcast,
				next:   StepReadyToSend,
			},
		},
		StepButtonText: {
			{
				kinds: []EventKind{EventText},
				guard: func(ev Event) bool { return strings.TrimSpace(ev.Text) != "" },
				apply: func(s *Session, ev Event) {
					s.Draft.ButtonText = strings.TrimSpace(ev.Text)
				},
				action: ActionAskButtonURL,
				next:   StepButtonURL,
			},
		},
		StepButtonURL: {
			{
				kinds: []EventKind{EventText},
				guard: func(ev Event) bool {
					return strings.HasPrefix(ev.Text, "http://") || strings.HasPrefix(ev.Text, "https://")
				},
				apply: func(s *Session, ev Event) {
					s.Draft.ButtonURL = strings.TrimSpace(ev.Text)
				},
				action: ActionPreviewBroadcast,
				next:   StepReadyToSend,
			},
		},
		StepReadyToSend: {
			{
				kinds:  []EventKind{EventCallback},
				data:   CallbackConfirmSend,
				action: ActionSendBroadcast,
				next:   StepDone,
			},
			{
				kinds:  []EventKind{EventCallback},
				data:   CallbackCancelBroadcast,
				action: ActionCancelBroadcast,
				next:   StepDone,
			},
		},
	}
}

func kindMatches(kinds []EventKind, kind EventKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
