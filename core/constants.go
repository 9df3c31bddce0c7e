package core

const (
	DefaultDataFile = "data.db" // Name of the log file when none is configured

	// Responses shared by every surface
	ReplyOK       = "ok"
	ReplyPong     = "PONG!"
	ReplyNotFound = "nil"
	ReplyTrue     = "true"
	ReplyFalse    = "false"
)
