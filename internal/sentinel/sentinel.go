package sentinel

// Error is a sentinel error whose message is the value itself. As a string
// type it can be declared const, so package-level sentinels stay immutable;
// an errors.New value has to live in a var and could be reassigned.
//
// Error is comparable, which is all errors.Is needs: plain == matches a
// sentinel through any chain of fmt.Errorf("...: %w", err) wrapping.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}

var _ error = Error("")
