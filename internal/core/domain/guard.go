package domain

// Owned is any record with a single owning user
type Owned interface {
	Owner() uint
}

// Stateful is an owned record with a lifecycle status
type Stateful[S comparable] interface {
	Owned
	CurrentStatus() S
}

// CanView reports whether the actor may read the record
func CanView(actor Actor, record Owned) bool {
	return actor.IsAdmin() || actor.UserID == record.Owner()
}

// CanMutate reports whether the actor may change the record. Admins bypass
// the state requirement; owners need the record in requiredOwnerState.
func CanMutate[S comparable](actor Actor, record Stateful[S], requiredOwnerState S) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.UserID == record.Owner() && record.CurrentStatus() == requiredOwnerState
}

// CanReview reports whether the actor may perform review actions
func CanReview(actor Actor) bool {
	return actor.IsAdmin()
}
