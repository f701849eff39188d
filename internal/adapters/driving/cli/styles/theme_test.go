package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flowsync/internal/core/domain"
)

func TestDefaultTheme_ColoursAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	colours := []lipgloss.Color{
		theme.Primary,
		theme.Secondary,
		theme.Success,
		theme.Warning,
		theme.Error,
	}

	seen := make(map[string]bool)
	for _, c := range colours {
		s := string(c)
		assert.NotEmpty(t, s)
		assert.False(t, seen[s], "duplicate colour: %s", s)
		seen[s] = true
	}
}

func TestNewStyles_NilTheme(t *testing.T) {
	styles := NewStyles(nil)

	require.NotNil(t, styles)
	assert.NotNil(t, styles.Theme())
}

func TestStyles_Decision(t *testing.T) {
	s := DefaultStyles()

	assert.Equal(t, s.Success, s.Decision(domain.DecisionInSync))
	assert.Equal(t, s.Accent, s.Decision(domain.DecisionPush))
	assert.Equal(t, s.Accent, s.Decision(domain.DecisionPull))
	assert.Equal(t, s.Warning, s.Decision(domain.DecisionConflict))
	assert.Equal(t, s.Muted, s.Decision(domain.DecisionSkip))
}

func TestStyles_Outcome(t *testing.T) {
	s := DefaultStyles()

	assert.Equal(t, s.Success, s.Outcome(domain.OutcomePulled))
	assert.Equal(t, s.Warning, s.Outcome(domain.OutcomeConflict))
	assert.Equal(t, s.Error, s.Outcome(domain.OutcomeFailed))
	assert.Equal(t, s.Muted, s.Outcome(domain.OutcomePlanned))
}
