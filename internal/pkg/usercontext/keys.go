package usercontext

// Shared Locals keys used across controllers and middlewares
const (
	KeyUserContext = "USER_CONTEXT"
)

// UnknownSubject is recorded when a bearer token carries no readable subject.
const UnknownSubject = "unknown"
