package database

import (
	"testing"
)

func TestIncomingWins(t *testing.T) {
	tests := []struct {
		name              string
		incomingUpdatedAt int64
		incomingID        string
		storedUpdatedAt   int64
		storedID          string
		expected          bool
	}{
		{"newer incoming wins", 2000, "a", 1000, "a", true},
		{"older incoming loses", 1000, "a", 2000, "a", false},
		{"tie with larger incoming id wins", 1000, "b", 1000, "a", true},
		{"tie with smaller incoming id loses", 1000, "a", 1000, "b", false},
		{"tie with equal id loses", 1000, "a", 1000, "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := incomingWins(tt.incomingUpdatedAt, tt.incomingID, tt.storedUpdatedAt, tt.storedID)
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// Two replicas applying the same pair of records in opposite orders must end
// up agreeing on the winner.
func TestIncomingWins_OrderIndependent(t *testing.T) {
	type record struct {
		updatedAt int64
		id        string
	}
	a := record{1000, "replica-a"}
	b := record{1000, "replica-b"}

	// Replica one sees a then b
	winnerOne := a
	if incomingWins(b.updatedAt, b.id, winnerOne.updatedAt, winnerOne.id) {
		winnerOne = b
	}

	// Replica two sees b then a
	winnerTwo := b
	if incomingWins(a.updatedAt, a.id, winnerTwo.updatedAt, winnerTwo.id) {
		winnerTwo = a
	}

	if winnerOne != winnerTwo {
		t.Errorf("Replicas diverged: %v vs %v", winnerOne, winnerTwo)
	}
	if winnerOne.id != "replica-b" {
		t.Errorf("Expected larger id to win the tie, got %q", winnerOne.id)
	}
}
