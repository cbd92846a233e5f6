package rates

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// unmarshalYAML decodes rate table YAML in strict mode so typos in keys
// fail loudly instead of silently producing an empty table.
func unmarshalYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
