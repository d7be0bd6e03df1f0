package recurring

// Scope names accepted in update requests.
const (
	ScopeAll              = "all"
	ScopeThisEventOnly    = "thisEventOnly"
	ScopeThisAndFollowing = "thisAndFollowing"
)

// Scope selects which occurrences of a recurring event an update applies to.
// The set of implementations is closed: AllInstances, ThisEventOnly and
// ThisAndFollowing.
type Scope interface {
	// Name returns the wire name of the scope.
	Name() string
	isScope()
}

// AllInstances updates the master event and therefore every occurrence.
type AllInstances struct{}

// ThisEventOnly updates the single occurrence that originally started at
// OriginalStartTime.
type ThisEventOnly struct {
	OriginalStartTime string
}

// ThisAndFollowing updates every occurrence from FutureStartDate onwards by
// splitting the series.
type ThisAndFollowing struct {
	FutureStartDate string
}

func (AllInstances) Name() string     { return ScopeAll }
func (ThisEventOnly) Name() string    { return ScopeThisEventOnly }
func (ThisAndFollowing) Name() string { return ScopeThisAndFollowing }

func (AllInstances) isScope()     {}
func (ThisEventOnly) isScope()    {}
func (ThisAndFollowing) isScope() {}

// ParseScope builds a Scope from its wire name and companion parameters.
// An empty name means AllInstances. Companion parameters are not checked here.
func ParseScope(name, originalStartTime, futureStartDate string) (Scope, error) {
	switch name {
	case "", ScopeAll:
		return AllInstances{}, nil
	case ScopeThisEventOnly:
		return ThisEventOnly{OriginalStartTime: originalStartTime}, nil
	case ScopeThisAndFollowing:
		return ThisAndFollowing{FutureStartDate: futureStartDate}, nil
	default:
		return nil, &InvalidScopeError{Reason: ReasonInvalidScope, Scope: name}
	}
}

// CheckParameters fails when a scope lacks its companion parameter.
func CheckParameters(scope Scope) error {
	switch s := scope.(type) {
	case AllInstances:
		return nil
	case ThisEventOnly:
		if s.OriginalStartTime == "" {
			return &MissingParameterError{Parameter: "originalStartTime", Scope: ScopeThisEventOnly}
		}
		return nil
	case ThisAndFollowing:
		if s.FutureStartDate == "" {
			return &MissingParameterError{Parameter: "futureStartDate", Scope: ScopeThisAndFollowing}
		}
		return nil
	default:
		return &InvalidScopeError{Reason: ReasonInvalidScope}
	}
}
