package ports

// Session is the caller's authentication context. It is passed explicitly to
// every component that needs it instead of being looked up globally.
type Session interface {
	Token() string
	Subject() string
	IsAuthenticated() bool
}
