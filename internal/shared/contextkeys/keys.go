package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "emr-metadata-dashboard context key " + string(c)
}

const (
	UserIDKey         = contextKey("userID")
	UserEmailKey      = contextKey("userEmail")
	UserRoleKey       = contextKey("userRole")
	OrganizationIDKey = contextKey("organizationID")
	ProjectIDKey      = contextKey("projectID")
	RequestIDKey      = contextKey("requestID")
	ComponentKey      = contextKey("component")
	OperationKey      = contextKey("operation")
)
