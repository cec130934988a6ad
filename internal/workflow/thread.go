package workflow

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in an instance's conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Thread is the conversation handle owned by a single instance. Every agent
// call receives it so context accumulates across iterations; the engine
// extends it from the journal, never from a live agent session.
type Thread struct {
	ID    string `json:"id"`
	Turns []Turn `json:"turns,omitempty"`
}

func exchange(message string, r Result) []Turn {
	reply := r.Response
	if reply == "" && hasPayload(r.Structured) {
		reply = string(r.Structured)
	}
	return []Turn{
		{Role: RoleUser, Content: message},
		{Role: RoleAssistant, Content: reply},
	}
}
