package store

import "encoding/json"

// CoachSlots accumulates the workout parameters a member has supplied
// across coaching turns, explicitly or implicitly. Stored as JSON on
// the conversation row and merged turn by turn; a slot, once filled,
// is never asked about again.
type CoachSlots struct {
	DurationMinutes  *int   `json:"durationMinutes,omitempty"`
	Energy           string `json:"energy,omitempty"`
	Location         string `json:"location,omitempty"`
	LimitationsToday string `json:"limitationsToday,omitempty"`
	Focus            string `json:"focus,omitempty"`
	Intensity        string `json:"intensity,omitempty"`
}

// Merge overlays other onto s, keeping existing values when other has
// none. Returns true when anything changed.
func (s *CoachSlots) Merge(other CoachSlots) bool {
	changed := false
	if s.DurationMinutes == nil && other.DurationMinutes != nil {
		s.DurationMinutes = other.DurationMinutes
		changed = true
	}
	if s.Energy == "" && other.Energy != "" {
		s.Energy = other.Energy
		changed = true
	}
	if s.Location == "" && other.Location != "" {
		s.Location = other.Location
		changed = true
	}
	if s.LimitationsToday == "" && other.LimitationsToday != "" {
		s.LimitationsToday = other.LimitationsToday
		changed = true
	}
	if s.Focus == "" && other.Focus != "" {
		s.Focus = other.Focus
		changed = true
	}
	if s.Intensity == "" && other.Intensity != "" {
		s.Intensity = other.Intensity
		changed = true
	}
	return changed
}

// IsZero reports whether no slot has been collected yet.
func (s CoachSlots) IsZero() bool {
	return s.DurationMinutes == nil && s.Energy == "" && s.Location == "" &&
		s.LimitationsToday == "" && s.Focus == "" && s.Intensity == ""
}

type CoachConversation struct {
	UID       string
	Title     string
	Slots     CoachSlots
	RowStatus RowStatus
	CreatedTs int64
	UpdatedTs int64
	ID        int32
	MemberID  int32
}

type CreateCoachConversation struct {
	UID      string
	Title    string
	MemberID int32
}

type FindCoachConversation struct {
	ID        *int32
	UID       *string
	MemberID  *int32
	RowStatus *RowStatus
	Limit     *int
}

type UpdateCoachConversation struct {
	Title     *string
	Slots     *CoachSlots
	RowStatus *RowStatus
	ID        int32
}

// TurnRole is the author of a coach turn.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// CoachTurn is one message in a coaching conversation. Assistant turns
// carry the serialized decision that produced them, for replay and
// clarification counting.
type CoachTurn struct {
	Role           TurnRole
	Content        string
	Decision       json.RawMessage
	CreatedTs      int64
	ID             int64
	ConversationID int32
}

type CreateCoachTurn struct {
	Role           TurnRole
	Content        string
	Decision       json.RawMessage
	ConversationID int32
}

// FindCoachTurn lists turns oldest first. Limit keeps only the most
// recent N turns while preserving chronological order.
type FindCoachTurn struct {
	ConversationID int32
	Limit          *int
}
