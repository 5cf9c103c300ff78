package models

// Pairing is one giver/recipient edge of a draw together with the rendered
// notification the giver receives.
type Pairing struct {
	Giver     *User
	Recipient *User
	Message   string
}

// Assignment is the result of a single draw. It is never persisted.
type Assignment struct {
	DrawID   string
	Pairings []Pairing
}

// Recipients returns the giver -> recipient mapping keyed by Discord ID
func (a *Assignment) Recipients() map[int64]int64 {
	result := make(map[int64]int64, len(a.Pairings))
	for _, p := range a.Pairings {
		result[p.Giver.DiscordID] = p.Recipient.DiscordID
	}
	return result
}
