package sentinel

var _ error = Error("")

// Error is an error backed by a string constant. Being comparable, it works
// with the == test errors.Is performs on each link of a wrapped chain.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
