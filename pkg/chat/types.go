package chat

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is a single message in a conversation.
type Turn struct {
	// Role is one of "user", "assistant", or "system".
	Role Role

	// Content is the text of the turn. May be empty for a pure-audio user turn.
	Content string

	// AudioFile is the path to a locally recorded clip attached to a user turn.
	// Empty when the turn carries no recording.
	AudioFile string

	// AudioID is the opaque identifier a provider issued for a prior spoken
	// assistant reply. A turn carrying an AudioID is encoded as an audio
	// reference on the wire, never additionally as free text.
	AudioID string
}

// Reply is the normalized result of one provider call.
//
// Text is always non-empty: adapters convert every failure (missing key,
// HTTP error, transport error) into degraded but human-readable reply text
// instead of returning a Go error. AudioFile and AudioID are set only by the
// voice-capable model when the provider returned a spoken reply.
type Reply struct {
	Text      string
	AudioFile string
	AudioID   string
}
