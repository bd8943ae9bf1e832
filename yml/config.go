package yml

import (
	"bytes"
	"context"
)

type contextKey string

func (c contextKey) String() string {
	return "yml-context-key-" + string(c)
}

const configContextKey = contextKey("config")

type OutputFormat string

const (
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// Config describes how a document was written so it can be written back the same way.
type Config struct {
	Indentation     int          // The indentation width of the document
	OutputFormat    OutputFormat // The output format to use when marshalling
	OriginalFormat  OutputFormat // The format the document was read in
	TrailingNewline bool         // Whether the original document had a trailing newline
}

var defaultConfig = &Config{
	Indentation:     2,
	OutputFormat:    OutputFormatYAML,
	OriginalFormat:  OutputFormatYAML,
	TrailingNewline: true,
}

func GetDefaultConfig() *Config {
	cfg := *defaultConfig
	return &cfg
}

func ContextWithConfig(ctx context.Context, config *Config) context.Context {
	if config == nil {
		return ctx
	}

	return context.WithValue(ctx, configContextKey, config)
}

func GetConfigFromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok || cfg == nil {
		return GetDefaultConfig()
	}

	return cfg
}

// GetConfigFromDoc sniffs the format and indentation of the raw document data.
func GetConfigFromDoc(data []byte) *Config {
	cfg := GetDefaultConfig()

	cfg.OutputFormat, cfg.Indentation = inspectData(data)
	cfg.OriginalFormat = cfg.OutputFormat
	cfg.TrailingNewline = len(data) > 0 && data[len(data)-1] == '\n'

	return cfg
}

func inspectData(data []byte) (OutputFormat, int) {
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))

	foundIndentation := false
	foundDocFormat := false

	indentation := 2
	docFormat := OutputFormatYAML

	// baseline indentation of the shallowest line seen so far
	minLeading := -1

	for i, line := range lines {
		trimLine := bytes.TrimSpace(line)
		if len(trimLine) == 0 {
			continue
		}

		switch trimLine[0] {
		case '#':
			continue
		case '{', '[':
			if !foundDocFormat {
				docFormat = OutputFormatJSON
				foundDocFormat = true
			}
		default:
			foundDocFormat = true

			leading := 0
			for leading < len(line) && line[leading] == ' ' {
				leading++
			}

			if minLeading == -1 || leading < minLeading {
				minLeading = leading
			}

			if leading > minLeading && !foundIndentation {
				indentation = leading - minLeading
				foundIndentation = true
			}
		}

		if foundIndentation && (foundDocFormat || i > 10) {
			break
		}
	}

	return docFormat, indentation
}
