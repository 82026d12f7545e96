package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineRender(t *testing.T) {
	engine := NewEngine()

	t.Run("replaces variables", func(t *testing.T) {
		out := engine.Render("Hi {{name}}", map[string]string{"name": "Ada"})
		assert.Equal(t, "Hi Ada", out)
	})

	t.Run("is idempotent for same inputs", func(t *testing.T) {
		vars := map[string]string{"name": "Ada"}
		first := engine.Render("Hi {{name}}", vars)
		second := engine.Render("Hi {{name}}", vars)
		assert.Equal(t, first, second)
	})

	t.Run("tolerates whitespace inside braces", func(t *testing.T) {
		out := engine.Render("Hi {{  name  }}", map[string]string{"name": "Ada"})
		assert.Equal(t, "Hi Ada", out)
	})

	t.Run("matches case-insensitively", func(t *testing.T) {
		out := engine.Render("Hi {{Name}}", map[string]string{"name": "Ada"})
		assert.Equal(t, "Hi Ada", out)
	})

	t.Run("leaves unmatched tokens literal", func(t *testing.T) {
		out := engine.Render("Hi {{name}}, you owe {{amount}}", map[string]string{"name": "Ada"})
		assert.Equal(t, "Hi Ada, you owe {{amount}}", out)
	})

	t.Run("nil variables return input unchanged", func(t *testing.T) {
		out := engine.Render("Hi {{name}}", nil)
		assert.Equal(t, "Hi {{name}}", out)
	})

	t.Run("replaces repeated tokens", func(t *testing.T) {
		out := engine.Render("{{name}} and {{name}}", map[string]string{"name": "Ada"})
		assert.Equal(t, "Ada and Ada", out)
	})

	t.Run("value is inserted literally", func(t *testing.T) {
		out := engine.Render("Hi {{name}}", map[string]string{"name": "$1 {{x}}"})
		assert.Equal(t, "Hi $1 {{x}}", out)
	})
}
