package domain

// Context keys set by the auth middleware and read by mutation handlers.
const (
	IssuerCtxKey     = "linkid-issuer"
	AuthMethodCtxKey = "linkid-auth-method"
)

// Event types published on the mutation channel.
const (
	EventRegister = "register"
	EventUpdate   = "update"
	EventWithdraw = "withdraw"
)

// EventChannel is the pub/sub channel carrying mutation events.
const EventChannel = "linkid:events"
