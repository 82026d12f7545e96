package template

import (
	"fmt"
	"regexp"
)

// Engine renders {{ variable }} placeholders. It holds no state; construct
// one and inject it wherever rendering is needed.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Render replaces every {{name}} token with the stringified variable value.
// Matching is case-insensitive and tolerates whitespace inside the braces.
// Unmatched tokens stay literal; nil or empty variables return the input
// unchanged. Pure function of its inputs.
func (e *Engine) Render(text string, variables map[string]string) string {
	if text == "" || len(variables) == 0 {
		return text
	}

	result := text
	for name, value := range variables {
		pattern := fmt.Sprintf(`(?i)\{\{\s*%s\s*\}\}`, regexp.QuoteMeta(name))
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		result = re.ReplaceAllLiteralString(result, value)
	}

	return result
}
