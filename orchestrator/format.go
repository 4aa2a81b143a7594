package orchestrator

import (
	"fmt"

	"github.com/hupe1980/agentlab/core"
)

// InvalidInputLine is sent when an inbound message is rejected.
const InvalidInputLine = "System: Invalid input."

// FormatSuccess renders "<agentId> <glyph>: <text>".
func FormatSuccess(identity core.Identity, text string) string {
	return fmt.Sprintf("%s %s: %s", identity.ID, identity.Glyph(), text)
}

// FormatFailure renders the system line reporting a failed agent.
func FormatFailure(agentID string, failure *core.AgentFailure) string {
	return fmt.Sprintf("System: Agent error (%s): %s", agentID, failure.Summary())
}

// FormatOutcome picks the success or failure rendering.
func FormatOutcome(identity core.Identity, out core.Outcome) string {
	if out.IsFailure() {
		return FormatFailure(identity.ID, out.Err)
	}
	return FormatSuccess(identity, out.Text)
}
