package report

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "report: encode JSON")
	}
	return nil
}

// WriteYAML writes doc as YAML.
func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "report: encode YAML")
	}
	if err := enc.Close(); err != nil {
		return eris.Wrap(err, "report: close YAML encoder")
	}
	return nil
}
