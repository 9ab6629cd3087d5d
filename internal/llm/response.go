package llm

import (
	"encoding/json"
	"strings"
)

// ResponseKind discriminates the two shapes a model call can produce.
type ResponseKind int

const (
	// PlainText is a bare string answer.
	PlainText ResponseKind = iota
	// KeyedResult is a JSON object carrying the answer under a
	// "result" or "answer" key.
	KeyedResult
)

// Response is the normalized model output.
type Response struct {
	Kind   ResponseKind
	Plain  string
	Result string
	Answer string
}

// Final returns the answer text a user should see.
func (r Response) Final() string {
	if r.Kind == KeyedResult {
		if r.Result != "" {
			return r.Result
		}
		if r.Answer != "" {
			return r.Answer
		}
	}
	return r.Plain
}

// ParseResponse normalizes raw model output. A JSON object with a
// "result" or "answer" string field becomes a KeyedResult; anything
// else is plain text.
func ParseResponse(raw string) Response {
	resp := Response{Kind: PlainText, Plain: raw}

	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return resp
	}
	var keyed struct {
		Result string `json:"result"`
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(trimmed), &keyed); err != nil {
		return resp
	}
	if keyed.Result == "" && keyed.Answer == "" {
		return resp
	}
	resp.Kind = KeyedResult
	resp.Result = keyed.Result
	resp.Answer = keyed.Answer
	return resp
}
