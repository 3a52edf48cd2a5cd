package usecase

// Broadcaster is the fan-out seam between the usecases and the socket layer.
// Implementations must be best-effort and non-blocking: a slow or dead
// session never blocks the caller, and a single remote relay can be slotted
// in behind the same contract if fan-out ever spans processes.
type Broadcaster interface {
	// ToRoom delivers to every session currently joined to the room.
	ToRoom(roomID, event string, payload any)
	// ToRoomExcept delivers to the room, skipping one session. Used for
	// typing indicators so the sender does not see their own.
	ToRoomExcept(roomID, excludeSessionID, event string, payload any)
	// ToUser delivers to every session authenticated as userID. A user may
	// have several open sessions.
	ToUser(userID, event string, payload any)
	// ToSession delivers to exactly one session.
	ToSession(sessionID, event string, payload any)
}
