// Package ai is the typed client for the writing-assistant service. The
// service itself is opaque to the rest of the system; only the request and
// response shapes are fixed here.
package ai

// Action selects the text transformation the assistant performs.
type Action string

const (
	ActionImprove    Action = "improve"
	ActionExpand     Action = "expand"
	ActionSummarize  Action = "summarize"
	ActionSimplify   Action = "simplify"
	ActionFixGrammar Action = "fix-grammar"
	ActionTranslate  Action = "translate"
	ActionContinue   Action = "continue"
	ActionCustom     Action = "custom"
)

// AssistRequest asks for a transformation of Text. Context carries
// surrounding note text the model may use; CustomPrompt is only read when
// Action is ActionCustom.
type AssistRequest struct {
	Action       Action `json:"action"`
	Text         string `json:"text"`
	Context      string `json:"context,omitempty"`
	CustomPrompt string `json:"customPrompt,omitempty"`
}

// SearchRequest asks a natural-language question over the user's notes,
// optionally narrowed to specific note ids.
type SearchRequest struct {
	Query   string   `json:"query"`
	NoteIDs []string `json:"noteIds,omitempty"`
}

type tagRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type tagResponse struct {
	Tags []string `json:"tags"`
}
