package mcp

import "encoding/json"

// UnknownField records a parameter that was passed but not recognized.
// Unknown fields never fail a call; they come back as warnings so the
// client can correct itself on the next one.
type UnknownField struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// collectUnknownFields parses raw JSON into a field map, capturing every
// key outside the known set as a warning.
func collectUnknownFields(data []byte, known map[string]struct{}) (map[string]json.RawMessage, []UnknownField, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	var warnings []UnknownField
	for key, value := range raw {
		if _, ok := known[key]; !ok {
			warnings = append(warnings, decodeUnknownField(key, value))
		}
	}
	return raw, warnings, nil
}

func decodeUnknownField(name string, data json.RawMessage) UnknownField {
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		value = string(data)
	}
	return UnknownField{Name: name, Value: value}
}

// SearchParams drives the search tool. The legacy field names from the
// first protocol revision still decode: "query" for pattern,
// "max_results" for max, "symbol_types" for kinds.
type SearchParams struct {
	Pattern   string   `json:"pattern"`             // search pattern, required
	Mode      string   `json:"mode,omitempty"`      // "file" (default) or "symbol"
	Max       int      `json:"max,omitempty"`       // result cap
	Kinds     string   `json:"kinds,omitempty"`     // comma-separated symbol kinds
	Languages []string `json:"languages,omitempty"` // language filter

	Warnings []UnknownField `json:"-"`
}

// UnmarshalJSON accepts unknown fields and normalizes legacy aliases.
func (p *SearchParams) UnmarshalJSON(data []byte) error {
	type alias SearchParams

	known := map[string]struct{}{
		"pattern": {}, "mode": {}, "max": {}, "kinds": {}, "languages": {},

		"query": {}, "max_results": {}, "symbol_types": {},
	}

	raw, warnings, err := collectUnknownFields(data, known)
	if err != nil {
		return err
	}

	normalized := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		switch key {
		case "query":
			if _, ok := raw["pattern"]; !ok {
				normalized["pattern"] = value
			}
		case "max_results":
			if _, ok := raw["max"]; !ok {
				normalized["max"] = value
			}
		case "symbol_types":
			if _, ok := raw["kinds"]; !ok {
				normalized["kinds"] = value
			}
		default:
			normalized[key] = value
		}
	}

	normalizedJSON, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(normalizedJSON, (*alias)(p)); err != nil {
		return err
	}
	p.Warnings = warnings
	return nil
}

// CompletionParams drives the completions tool. A missing cursor means
// end-of-text. "input" and "position" are accepted as legacy aliases.
type CompletionParams struct {
	Text   string `json:"text"`
	Cursor int    `json:"cursor"`

	Warnings []UnknownField `json:"-"`
}

func (p *CompletionParams) UnmarshalJSON(data []byte) error {
	type alias CompletionParams

	known := map[string]struct{}{
		"text": {}, "cursor": {},

		"input": {}, "position": {},
	}

	raw, warnings, err := collectUnknownFields(data, known)
	if err != nil {
		return err
	}

	normalized := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		switch key {
		case "input":
			if _, ok := raw["text"]; !ok {
				normalized["text"] = value
			}
		case "position":
			if _, ok := raw["cursor"]; !ok {
				normalized["cursor"] = value
			}
		default:
			normalized[key] = value
		}
	}

	normalizedJSON, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(normalizedJSON, (*alias)(p)); err != nil {
		return err
	}
	if _, ok := normalized["cursor"]; !ok {
		p.Cursor = -1
	}
	p.Warnings = warnings
	return nil
}

// MentionParam is one explicit @-reference inside a context request.
type MentionParam struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"` // symbol name for @#name mentions
	Line int    `json:"line,omitempty"`
}

// ContextParams drives the context tool. Legacy aliases: "file",
// "recent", "budget".
type ContextParams struct {
	CurrentFile string         `json:"current_file,omitempty"`
	RecentFiles []string       `json:"recent_files,omitempty"`
	TokenBudget int            `json:"token_budget,omitempty"`
	Mentions    []MentionParam `json:"mentions,omitempty"`

	Warnings []UnknownField `json:"-"`
}

func (p *ContextParams) UnmarshalJSON(data []byte) error {
	type alias ContextParams

	known := map[string]struct{}{
		"current_file": {}, "recent_files": {}, "token_budget": {}, "mentions": {},

		"file": {}, "recent": {}, "budget": {},
	}

	raw, warnings, err := collectUnknownFields(data, known)
	if err != nil {
		return err
	}

	normalized := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		switch key {
		case "file":
			if _, ok := raw["current_file"]; !ok {
				normalized["current_file"] = value
			}
		case "recent":
			if _, ok := raw["recent_files"]; !ok {
				normalized["recent_files"] = value
			}
		case "budget":
			if _, ok := raw["token_budget"]; !ok {
				normalized["token_budget"] = value
			}
		default:
			normalized[key] = value
		}
	}

	normalizedJSON, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(normalizedJSON, (*alias)(p)); err != nil {
		return err
	}
	p.Warnings = warnings
	return nil
}

// InfoParams selects which tool the info tool describes.
type InfoParams struct {
	Tool string `json:"tool,omitempty"`

	Warnings []UnknownField `json:"-"`
}

func (p *InfoParams) UnmarshalJSON(data []byte) error {
	type alias InfoParams

	known := map[string]struct{}{
		"tool": {},
	}

	_, warnings, err := collectUnknownFields(data, known)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, (*alias)(p)); err != nil {
		return err
	}
	p.Warnings = warnings
	return nil
}
