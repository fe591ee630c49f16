package database

// incomingWins implements the last-writer-wins comparison used by push-side
// conflict checks. Higher updated_at wins; on an exact timestamp tie the
// lexicographically larger id wins, so replicas applying the same records in
// any order converge on the same winner. A stored record whose id is
// greater-or-equal keeps its seat and the incoming record is a conflict.
func incomingWins(incomingUpdatedAt int64, incomingID string, storedUpdatedAt int64, storedID string) bool {
	if incomingUpdatedAt != storedUpdatedAt {
		return incomingUpdatedAt > storedUpdatedAt
	}
	return incomingID > storedID
}
