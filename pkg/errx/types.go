package errx

// Type groups errors by how callers should react to them.
type Type string

const (
	TypeValidation    Type = "VALIDATION"
	TypeAuthorization Type = "AUTHORIZATION"
	TypeNotFound      Type = "NOT_FOUND"
	// TypeExternal marks failures reported by an upstream service
	TypeExternal Type = "EXTERNAL"
	TypeInternal Type = "INTERNAL"
)

func (t Type) String() string {
	return string(t)
}
