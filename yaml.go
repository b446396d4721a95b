package tap

import "gopkg.in/yaml.v3"

// decodeYAML is the external YAML loader used by the diagnostic block
// tracker. It decodes a mapping into map[string]any, falling back to
// []any when the top-level node is a sequence. Decode errors are
// returned verbatim; the caller treats any error as "not yaml," never
// as fatal.
func decodeYAML(text []byte) (any, error) {
	var seq []any
	if err := yaml.Unmarshal(text, &seq); err == nil && seq != nil {
		return seq, nil
	}

	var doc map[string]any
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
