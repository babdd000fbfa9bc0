package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/walkerscm/cosmosctl/internal/config"
	"gopkg.in/yaml.v3"
)

// render writes v as JSON or YAML according to format. Text output is left
// to the caller through text.
func render(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case config.OutputText, "":
		return text(w)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

func outputFormat() string {
	if cfg == nil {
		return config.OutputText
	}
	return cfg.Output
}
