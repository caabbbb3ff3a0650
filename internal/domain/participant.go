package domain

import (
	"cmp"
	"slices"
)

// Participant is a salesperson eligible to hold leads. The directory that owns
// participants is external; the cascade only reads snapshots of it.
type Participant struct {
	ID     int64
	Name   string
	Active bool
}

// EligibleParticipants returns the active participants ordered by ascending ID.
func EligibleParticipants(participants []Participant) []Participant {
	out := make([]Participant, 0, len(participants))
	for _, p := range participants {
		if p.Active {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Participant) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// FirstParticipant returns the participant that receives a new lead.
func FirstParticipant(participants []Participant) (Participant, bool) {
	eligible := EligibleParticipants(participants)
	if len(eligible) == 0 {
		return Participant{}, false
	}
	return eligible[0], true
}

// NextParticipant returns the participant that follows pivot in the rotation,
// wrapping to the first entry after the last one. A directory of one rotates
// to itself. When pivot has left the directory the rotation restarts at the
// first participant.
func NextParticipant(participants []Participant, pivot int64) (Participant, bool) {
	eligible := EligibleParticipants(participants)
	if len(eligible) == 0 {
		return Participant{}, false
	}
	i := slices.IndexFunc(eligible, func(p Participant) bool { return p.ID == pivot })
	return eligible[(i+1)%len(eligible)], true
}
