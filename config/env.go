package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var envVarPatterns = struct {
	withDefault *regexp.Regexp
	braced      *regexp.Regexp
	simple      *regexp.Regexp
}{
	withDefault: regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*):-(.*?)\}`),
	braced:      regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`),
	simple:      regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`),
}

// ExpandEnv replaces ${VAR:-default}, ${VAR} and $VAR references.
func ExpandEnv(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}

	s = envVarPatterns.withDefault.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarPatterns.withDefault.FindStringSubmatch(match)
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})
	s = envVarPatterns.braced.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPatterns.braced.FindStringSubmatch(match)[1])
	})
	s = envVarPatterns.simple.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPatterns.simple.FindStringSubmatch(match)[1])
	})

	return s
}

// expandNode expands environment references in every scalar value below n.
// Quoted scalars stay strings; plain scalars lose their tag so the decoder
// resolves the expanded text, letting "${PORT:-10}" populate an int field.
func expandNode(n *yaml.Node) {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			expandNode(c)
		}
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			expandNode(n.Content[i])
		}
	case yaml.ScalarNode:
		expanded := ExpandEnv(n.Value)
		if expanded == n.Value {
			return
		}
		n.Value = expanded
		if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
			n.Tag = "!!str"
		} else {
			n.Tag = ""
		}
	}
}

// LoadDotEnv loads .env.local and .env from the working directory plus any
// explicit paths. Missing files are ignored and existing variables win.
func LoadDotEnv(paths ...string) error {
	files := append([]string{".env.local", ".env"}, paths...)
	for _, file := range files {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// apiKeyEnv maps a backend to the environment variable holding its key.
var apiKeyEnv = map[string]string{
	BackendOpenAI:      "OPENAI_API_KEY",
	BackendHuggingFace: "HUGGINGFACE_API_KEY",
	BackendGemini:      "GEMINI_API_KEY",
	BackendAnthropic:   "ANTHROPIC_API_KEY",
	BackendStability:   "STABILITY_API_KEY",
}

// APIKeyEnv returns the environment variable consulted for backend, or "".
func APIKeyEnv(backend string) string { return apiKeyEnv[backend] }
