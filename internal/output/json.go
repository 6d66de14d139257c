package output

import "encoding/json"

// JSONFormatter renders the report as JSON.
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
}

func (j JSONFormatter) Name() string {
	if j.Pretty {
		return "json"
	}
	return "json-compact"
}

func (j JSONFormatter) Format(r *Report) ([]byte, error) {
	if j.Pretty {
		return json.MarshalIndent(r, "", "  ")
	}
	return json.Marshal(r)
}
