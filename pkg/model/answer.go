package model

// Source is one cited record shown to the caller: the record label and
// a short excerpt of its content.
type Source struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// Response is the well-formed result every query produces, whatever the
// terminal state. Sources is exactly the citation set bound by the
// verifier, never the full candidate set.
type Response struct {
	State     TerminalState `json:"state"`
	Answer    string        `json:"answer"`
	Sources   []Source      `json:"sources"`
	Citations []RecordID    `json:"citations"`
	// Disclosed is set when unsupported claims were stripped and the
	// answer was marked partial.
	Disclosed bool `json:"disclosed,omitempty"`

	Gate    GateVerdict    `json:"gate"`
	Verdict *AnswerVerdict `json:"verdict,omitempty"`

	Candidates []*RetrievalCandidate `json:"candidates,omitempty"`
}

// Verified reports whether the answer passed all verification layers.
func (r *Response) Verified() bool {
	return r.State == StateAnswered
}
