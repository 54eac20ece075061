package entity

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the transcript. Its identity is its position.
type Turn struct {
	Role Role
	Text string
	// Diagnostic is attached once, when an assistant turn is finalized, and is
	// never mutated afterwards.
	Diagnostic *Diagnostic
	// Open is set on the single assistant turn still receiving tokens.
	Open bool
}

func (t Turn) HasDiagnostic() bool {
	return t.Diagnostic != nil
}
