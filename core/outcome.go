package core

// ResponseKind distinguishes plain text responses from rendered images.
type ResponseKind string

const (
	KindText  ResponseKind = "text"
	KindImage ResponseKind = "image"
)

// Outcome is the tagged result of one agent invocation: either a success
// (Text, Kind and optional ImageData) or a failure (Err). Construct outcomes
// through Succeeded, SucceededWithImage or Failed so the two cases never mix.
type Outcome struct {
	AgentID   string
	Text      string
	Kind      ResponseKind
	ImageData []byte
	Err       *AgentFailure
}

// Succeeded returns a text success outcome.
func Succeeded(agentID, text string) Outcome {
	return Outcome{AgentID: agentID, Text: text, Kind: KindText}
}

// SucceededWithImage returns an image success outcome. The caption is kept in Text.
func SucceededWithImage(agentID, caption string, image []byte) Outcome {
	return Outcome{AgentID: agentID, Text: caption, Kind: KindImage, ImageData: image}
}

// Failed returns a failure outcome for agentID. A nil failure is replaced by
// a generic transport failure so the outcome is never mistaken for a success.
// A failure without an agent id is copied, never modified in place.
func Failed(agentID string, failure *AgentFailure) Outcome {
	if failure == nil {
		failure = NewAgentFailure(agentID, FailureTransport, "unknown failure", nil)
	}
	if failure.AgentID == "" {
		stamped := *failure
		stamped.AgentID = agentID
		failure = &stamped
	}
	return Outcome{AgentID: agentID, Err: failure}
}

// IsFailure reports whether the outcome is a failure.
func (o Outcome) IsFailure() bool { return o.Err != nil }
