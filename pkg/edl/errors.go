package edl

import "fmt"

// EncodeError reports a single failed encode call. It never aborts anything
// beyond that call.
type EncodeError struct {
	Command string
	Part    string // "request" or "response"
	Field   string
	Msg     string
}

func (e *EncodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("edl encode %s %s field %s: %s", e.Command, e.Part, e.Field, e.Msg)
	}
	return fmt.Sprintf("edl encode %s %s: %s", e.Command, e.Part, e.Msg)
}

// DecodeError reports a single failed decode call.
type DecodeError struct {
	Command string
	Part    string
	Field   string
	Msg     string
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("edl decode %s %s field %s: %s", e.Command, e.Part, e.Field, e.Msg)
	}
	return fmt.Sprintf("edl decode %s %s: %s", e.Command, e.Part, e.Msg)
}
