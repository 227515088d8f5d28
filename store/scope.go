package store

// Scope is a logical partition of the cache keyspace. Each scope maps
// to a distinct underlying store instance.
type Scope int

const (
	// ScopeDocument is the default scope; unrecognized tokens resolve here.
	ScopeDocument Scope = iota

	// ScopeUser partitions entries per user.
	ScopeUser

	// ScopeScript partitions entries per script.
	ScopeScript
)

// ParseScope maps a scope token to a Scope. Unrecognized tokens fall
// back to ScopeDocument rather than failing.
func ParseScope(token string) Scope {
	switch token {
	case "USER":
		return ScopeUser
	case "SCRIPT":
		return ScopeScript
	case "DOCUMENT":
		return ScopeDocument
	default:
		return ScopeDocument
	}
}

func (s Scope) String() string {
	switch s {
	case ScopeUser:
		return "USER"
	case ScopeScript:
		return "SCRIPT"
	default:
		return "DOCUMENT"
	}
}

// Selector resolves a Scope to a concrete store handle. Resolution is
// repeated on every call; handles are not cached here.
type Selector struct {
	document Store
	user     Store
	script   Store
}

// NewSelector creates a selector with document as the fallback store.
// User and script stores are optional; nil handles resolve to the
// document store.
func NewSelector(document Store) *Selector {
	return &Selector{document: document}
}

// WithUser sets the store backing ScopeUser.
func (s *Selector) WithUser(st Store) *Selector {
	s.user = st
	return s
}

// WithScript sets the store backing ScopeScript.
func (s *Selector) WithScript(st Store) *Selector {
	s.script = st
	return s
}

// Select returns the store handle for scope.
func (s *Selector) Select(scope Scope) Store {
	switch scope {
	case ScopeUser:
		if s.user != nil {
			return s.user
		}
	case ScopeScript:
		if s.script != nil {
			return s.script
		}
	}
	return s.document
}
