package probe

// Result is either a parsed value or the reason it is unavailable.
type Result[T any] struct {
	Value T
	Err   *Error
}

// OK reports whether Value is usable.
func (r Result[T]) OK() bool { return r.Err == nil }

func ok[T any](v T) Result[T] { return Result[T]{Value: v} }

func fail[T any](err *Error) Result[T] { return Result[T]{Err: err} }

// Sessions is the logged-in users probe value.
type Sessions struct {
	Lines []string // at most the display limit, verbatim
	Total int      // every output line, independent of Lines
}
