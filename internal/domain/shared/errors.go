package shared

// ErrTransientStoreFailure means a store was unreachable or kept conflicting.
// Callers may retry; it never means the credentials or funds were wrong.
type ErrTransientStoreFailure struct {
	Op  string
	Err error
}

func (e ErrTransientStoreFailure) Error() string {
	if e.Err != nil {
		return "transient store failure during " + e.Op + ": " + e.Err.Error()
	}
	return "transient store failure during " + e.Op
}

func (e ErrTransientStoreFailure) Unwrap() error {
	return e.Err
}

// Is matches any ErrTransientStoreFailure
func (e ErrTransientStoreFailure) Is(target error) bool {
	_, ok := target.(ErrTransientStoreFailure)
	return ok
}
