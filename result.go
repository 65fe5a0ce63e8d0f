package datamodel

import "fmt"

// ErrorKind is the closed failure taxonomy carried by a Result.
type ErrorKind int

// Error kinds. The numeric values are stable and may be persisted.
const (
	None                ErrorKind = 0
	DataValidateFailure ErrorKind = 110
	OperationWarning    ErrorKind = 290
	OperationFailure    ErrorKind = 300
	OperationTimeout    ErrorKind = 350
	SupportFailed       ErrorKind = 400
	DataDesignError     ErrorKind = 2000
)

// String returns the name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case None:
		return "None"
	case DataValidateFailure:
		return "DataValidateFailure"
	case OperationWarning:
		return "OperationWarning"
	case OperationFailure:
		return "OperationFailure"
	case OperationTimeout:
		return "OperationTimeout"
	case SupportFailed:
		return "SupportFailed"
	case DataDesignError:
		return "DataDesignError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Retryable reports whether a caller may safely retry an operation that
// failed with this kind. Only timeouts qualify.
func (k ErrorKind) Retryable() bool {
	return k == OperationTimeout
}

// Result is the uniform envelope returned by every adapter operation.
// A successful Result has kind None and may carry a payload; a failed Result
// never carries one. The zero value is a successful Result without payload.
type Result struct {
	failed      bool
	kind        ErrorKind
	item        string
	explanation string
	data        any
}

// Succeed returns a successful Result carrying data.
func Succeed(data any) Result {
	return Result{data: data}
}

// Fail returns a failed Result. A kind of None is recorded as SupportFailed
// so that a failed Result always names its cause.
func Fail(kind ErrorKind, item, explanation string) Result {
	if kind == None {
		kind = SupportFailed
	}
	return Result{failed: true, kind: kind, item: item, explanation: explanation}
}

// Succeed reports whether the operation succeeded.
func (r Result) Succeed() bool { return !r.failed }

// Kind returns the error kind, None on success.
func (r Result) Kind() ErrorKind { return r.kind }

// Item returns the short label of the failing area (e.g. "Data Engine").
func (r Result) Item() string { return r.item }

// Explanation returns the human readable failure text.
func (r Result) Explanation() string { return r.explanation }

// Data returns the payload. It is nil for failed results and for successful
// results without payload.
func (r Result) Data() any { return r.data }

// Err returns nil on success and a *Fault otherwise.
func (r Result) Err() error {
	if !r.failed {
		return nil
	}
	return &Fault{Kind: r.kind, Item: r.item, Explanation: r.explanation}
}

// String returns a short description of the result.
func (r Result) String() string {
	if !r.failed {
		return fmt.Sprintf("succeed: %v", r.data)
	}
	return fmt.Sprintf("%s [%s] %s", r.kind, r.item, r.explanation)
}

// DataAs returns the payload of r as T. The second value is false when the
// result failed, carries no payload, or the payload is not a T.
func DataAs[T any](r Result) (T, bool) {
	v, ok := r.data.(T)
	return v, ok
}
