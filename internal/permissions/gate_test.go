package permissions

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/geotraq/agent/pkg/file"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockPrompter struct {
	mock.Mock
}

func (m *mockPrompter) Prompt(ctx context.Context, capability Capability) (bool, error) {
	args := m.Called(ctx, capability)
	return args.Bool(0), args.Error(1)
}

// TestGate_Ensure_PromptsOnceAndPersists verifies that the first Ensure
// prompts, and that repeated calls re-read the recorded decision.
func TestGate_Ensure_PromptsOnceAndPersists(t *testing.T) {
	// Setup
	grantsFile := filepath.Join(t.TempDir(), "grants.json")
	prompter := new(mockPrompter)
	prompter.On("Prompt", mock.Anything, FineLocation).Return(true, nil).Once()

	gate := NewGate(grantsFile, file.NewFileService(), prompter, zerolog.Nop())

	// Execute
	granted, err := gate.Ensure(context.Background(), FineLocation)

	// Assert
	assert.NoError(t, err)
	assert.True(t, granted)

	// A second Ensure must not prompt again
	granted, err = gate.Ensure(context.Background(), FineLocation)
	assert.NoError(t, err)
	assert.True(t, granted)
	prompter.AssertExpectations(t)
}

// TestGate_Ensure_DecisionSurvivesRestart verifies that a recorded denial
// is re-read by a fresh gate instance without prompting.
func TestGate_Ensure_DecisionSurvivesRestart(t *testing.T) {
	// Setup
	grantsFile := filepath.Join(t.TempDir(), "grants.json")
	fileOps := file.NewFileService()

	prompter := new(mockPrompter)
	prompter.On("Prompt", mock.Anything, FineLocation).Return(false, nil).Once()

	gate := NewGate(grantsFile, fileOps, prompter, zerolog.Nop())
	granted, err := gate.Ensure(context.Background(), FineLocation)
	assert.NoError(t, err)
	assert.False(t, granted)

	// Execute: a fresh gate over the same grants file
	fresh := NewGate(grantsFile, fileOps, new(mockPrompter), zerolog.Nop())
	granted, err = fresh.Ensure(context.Background(), FineLocation)

	// Assert
	assert.NoError(t, err)
	assert.False(t, granted)
	prompter.AssertExpectations(t)
}

// TestGate_Revoke verifies that revoking a decision makes the next Ensure
// prompt again.
func TestGate_Revoke(t *testing.T) {
	// Setup
	grantsFile := filepath.Join(t.TempDir(), "grants.json")
	prompter := new(mockPrompter)
	prompter.On("Prompt", mock.Anything, FineLocation).Return(true, nil).Twice()

	gate := NewGate(grantsFile, file.NewFileService(), prompter, zerolog.Nop())

	// Execute
	_, err := gate.Ensure(context.Background(), FineLocation)
	assert.NoError(t, err)
	assert.NoError(t, gate.Revoke(FineLocation))
	granted, err := gate.Ensure(context.Background(), FineLocation)

	// Assert
	assert.NoError(t, err)
	assert.True(t, granted)
	prompter.AssertExpectations(t)
}

// TestConsolePrompter reads grant decisions from an interactive stream.
func TestConsolePrompter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		granted bool
	}{
		{"explicit yes", "y\n", true},
		{"long yes", "yes\n", true},
		{"explicit no", "n\n", false},
		{"empty answer denies", "\n", false},
		{"garbage denies", "whatever\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			p := NewConsolePrompter(strings.NewReader(tt.input), &out)

			granted, err := p.Prompt(context.Background(), FineLocation)

			assert.NoError(t, err)
			assert.Equal(t, tt.granted, granted)
			assert.Contains(t, out.String(), string(FineLocation))
		})
	}
}

// TestStaticPrompter returns the configured decision.
func TestStaticPrompter(t *testing.T) {
	granted, err := (&StaticPrompter{Granted: true}).Prompt(context.Background(), FineLocation)
	assert.NoError(t, err)
	assert.True(t, granted)

	granted, err = (&StaticPrompter{Granted: false}).Prompt(context.Background(), FineLocation)
	assert.NoError(t, err)
	assert.False(t, granted)
}
