package constants

// ContextKeyUser is the gin context key the auth middleware stores the
// authenticated user under.
const ContextKeyUser = "current_user"

// Context keys for values stashed by the project middleware chain.
const (
	ContextKeyProject       = "project"
	ContextKeyProjectMember = "project_member"
)

// MinPasswordLength is the minimum accepted password length at signup.
const MinPasswordLength = 6

// Pagination bounds for list endpoints.
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
