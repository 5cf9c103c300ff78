package models

// ConversationState is the position of a single user in the chat flow
type ConversationState string

const (
	StateNone           ConversationState = ""               // No contact yet
	StateAwaitingName   ConversationState = "awaiting_name"  // Registration: name requested
	StateAwaitingWish   ConversationState = "awaiting_wish"  // Registration: wish requested
	StateChangingName   ConversationState = "changing_name"  // Edit: new name requested
	StateChangingWish   ConversationState = "changing_wish"  // Edit: new wish requested
	StateDone           ConversationState = "done"           // Idle, menu shown
	StateConfirmingDraw ConversationState = "confirming_draw" // Admin asked to run the draw
)

// IsValid reports whether the state is one of the known states
func (s ConversationState) IsValid() bool {
	switch s {
	case StateNone, StateAwaitingName, StateAwaitingWish, StateChangingName,
		StateChangingWish, StateDone, StateConfirmingDraw:
		return true
	}
	return false
}

// Action is a button press on the chat menu
type Action string

const (
	ActionInfo       Action = "info"
	ActionChangeName Action = "change_name"
	ActionChangeWish Action = "change_wish"
	ActionAdminStats Action = "admin_stats"
	ActionAdminDraw  Action = "admin_draw"
	ActionYes        Action = "yes"
	ActionNo         Action = "no"
)

// IsAdminOnly reports whether only the administrator may trigger the action
func (a Action) IsAdminOnly() bool {
	switch a {
	case ActionAdminStats, ActionAdminDraw, ActionYes, ActionNo:
		return true
	}
	return false
}

// ParseAction converts a raw action name into an Action
func ParseAction(raw string) (Action, bool) {
	a := Action(raw)
	switch a {
	case ActionInfo, ActionChangeName, ActionChangeWish, ActionAdminStats,
		ActionAdminDraw, ActionYes, ActionNo:
		return a, true
	}
	return "", false
}
