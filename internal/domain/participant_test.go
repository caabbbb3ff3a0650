package domain_test

import (
	"testing"

	"github.com/neomorfeo/leadcascade/internal/domain"
)

func participants(ids ...int64) []domain.Participant {
	out := make([]domain.Participant, len(ids))
	for i, id := range ids {
		out[i] = domain.Participant{ID: id, Active: true}
	}
	return out
}

func TestEligibleParticipants_FiltersAndSorts(t *testing.T) {
	in := []domain.Participant{
		{ID: 30, Active: true},
		{ID: 10, Active: false},
		{ID: 20, Active: true},
	}

	got := domain.EligibleParticipants(in)
	if len(got) != 2 || got[0].ID != 20 || got[1].ID != 30 {
		t.Errorf("EligibleParticipants = %+v, want [20 30]", got)
	}
}

func TestFirstParticipant(t *testing.T) {
	p, ok := domain.FirstParticipant(participants(102, 101))
	if !ok || p.ID != 101 {
		t.Errorf("FirstParticipant = (%d, %v), want (101, true)", p.ID, ok)
	}

	if _, ok := domain.FirstParticipant(nil); ok {
		t.Error("FirstParticipant(nil) should report no participant")
	}
}

func TestNextParticipant(t *testing.T) {
	abc := participants(1, 2, 3)

	cases := []struct {
		name  string
		in    []domain.Participant
		pivot int64
		want  int64
		ok    bool
	}{
		{"middle", abc, 1, 2, true},
		{"wraps from last", abc, 3, 1, true},
		{"single rotates to itself", participants(7), 7, 7, true},
		{"pivot left the directory", participants(1, 3, 5), 4, 1, true},
		{"pivot below every remaining id", participants(3, 5), 2, 3, true},
		{"pivot left past the end", participants(1, 3), 9, 1, true},
		{"empty directory", nil, 1, 0, false},
		{"only inactive", []domain.Participant{{ID: 1}}, 1, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := domain.NextParticipant(tc.in, tc.pivot)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got.ID != tc.want {
				t.Errorf("NextParticipant(pivot=%d) = %d, want %d", tc.pivot, got.ID, tc.want)
			}
		})
	}
}
