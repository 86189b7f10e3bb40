package subscription

// Subscription links a chat user to a match they want notifications
// for. The notified flags are the durable idempotency guard: in-memory
// timers are lost on restart, so delivery always re-checks them.
type Subscription struct {
	ID           int64
	UserID       int64
	ChatID       int64
	MatchID      int64
	NotifiedPre  bool
	NotifiedPost bool
}
