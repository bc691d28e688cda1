package domain

// Member is one roster line: who is in the room and under which label.
// No transport or lifecycle logic here.
type Member struct {
	ID          ParticipantID `json:"id"`
	DisplayName string        `json:"displayName"`
}
