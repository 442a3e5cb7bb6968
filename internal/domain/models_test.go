package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/shopscribe/internal/domain"
)

func TestAttributeSelection_Includes(t *testing.T) {
	color := domain.Attribute{Key: "pa_color", Label: "Farbe", Value: "Blau", Taxonomy: true}
	material := domain.Attribute{Key: "material", Label: "Material", Value: "Holz"}

	t.Run("should include nothing when empty", func(t *testing.T) {
		var sel domain.AttributeSelection

		require.True(t, sel.IsEmpty())
		require.False(t, sel.Includes(color))
		require.False(t, sel.Includes(material))
	})

	t.Run("should include everything with all", func(t *testing.T) {
		sel := domain.AttributeSelection{All: true}

		require.True(t, sel.Includes(color))
		require.True(t, sel.Includes(material))
	})

	t.Run("should include only non-taxonomy attributes with custom", func(t *testing.T) {
		sel := domain.AttributeSelection{Custom: true}

		require.False(t, sel.Includes(color))
		require.True(t, sel.Includes(material))
	})

	t.Run("should include listed keys", func(t *testing.T) {
		sel := domain.AttributeSelection{Keys: []string{"pa_color"}}

		require.True(t, sel.Includes(color))
		require.False(t, sel.Includes(material))
	})
}
