package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan(t *testing.T) {
	t.Run("trims the query", func(t *testing.T) {
		planned, err := Plan("  deploy failure \n", nil)
		require.NoError(t, err)
		assert.Equal(t, "deploy failure", planned.Query)
		assert.Empty(t, planned.RequiredTags)
	})

	t.Run("empty query plans to match-all", func(t *testing.T) {
		planned, err := Plan("   ", nil)
		require.NoError(t, err)
		assert.Equal(t, "", planned.Query)
	})

	t.Run("tag filters", func(t *testing.T) {
		planned, err := Plan("deploy", []string{"tag:ops", "tag:runbook"})
		require.NoError(t, err)
		assert.Equal(t, []string{"ops", "runbook"}, planned.RequiredTags)
	})

	t.Run("hash shorthand", func(t *testing.T) {
		planned, err := Plan("", []string{"#ops", "tag:runbook"})
		require.NoError(t, err)
		assert.Equal(t, []string{"ops", "runbook"}, planned.RequiredTags)
	})

	t.Run("tag values may contain colons", func(t *testing.T) {
		planned, err := Plan("", []string{"tag:env:prod"})
		require.NoError(t, err)
		assert.Equal(t, []string{"env:prod"}, planned.RequiredTags)
	})

	t.Run("malformed filters", func(t *testing.T) {
		for _, filter := range []string{"ops", "#", "tag:", "title:deploy", ":ops"} {
			_, err := Plan("deploy", []string{filter})
			assert.ErrorIs(t, err, ErrInvalidFilterSyntax, "filter %q", filter)
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		a, err := Plan("deploy", []string{"tag:ops", "#runbook"})
		require.NoError(t, err)
		b, err := Plan("deploy", []string{"tag:ops", "#runbook"})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}
