package recurring

import "fmt"

// Reasons carried by InvalidScopeError.
const (
	ReasonNonRecurringScope = "non-recurring-scope"
	ReasonInvalidScope      = "invalid-scope"
)

// InvalidScopeError reports a scope that is unknown or does not apply to the target event.
type InvalidScopeError struct {
	Reason string
	Scope  string
}

func (e *InvalidScopeError) Error() string {
	if e.Reason == ReasonNonRecurringScope {
		return fmt.Sprintf("modification scope %q only applies to recurring events", e.Scope)
	}
	if e.Scope == "" {
		return "invalid modification scope"
	}
	return fmt.Sprintf("invalid modification scope %q", e.Scope)
}

// MissingParameterError reports a scope whose companion parameter is absent.
type MissingParameterError struct {
	Parameter string
	Scope     string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("%s is required when modificationScope is '%s'", e.Parameter, e.Scope)
}

// NotRecurringError reports a series operation on an event without recurrence rules.
type NotRecurringError struct {
	EventID string
}

func (e *NotRecurringError) Error() string {
	return fmt.Sprintf("event %s does not have recurrence rules", e.EventID)
}

// UpstreamError wraps a failed calendar backend call.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// PartialSplitError reports a series split whose truncation succeeded but
// whose following series could not be inserted. The original series stays
// truncated; Split can be passed to CreateFollowingSeries to retry.
type PartialSplitError struct {
	Split *SeriesSplit
	Err   error
}

func (e *PartialSplitError) Error() string {
	return fmt.Sprintf("series %s was truncated with UNTIL=%s but the following series could not be created: %v",
		e.Split.MasterID, e.Split.Until, e.Err)
}

func (e *PartialSplitError) Unwrap() error {
	return e.Err
}
