package mock

// SafeError returns v as an error, or nil when v is nil.
func SafeError(v interface{}) error {
	if v == nil {
		return nil
	}
	return v.(error)
}
