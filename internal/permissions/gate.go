package permissions

import (
	"context"
	"fmt"
	"sync"

	"github.com/geotraq/agent/pkg/file"
	"github.com/rs/zerolog"
)

// Capability names a dangerous runtime capability the user must grant
// before the agent may use it.
type Capability string

// FineLocation guards access to precise device positioning.
const FineLocation Capability = "location.fine"

// Gate checks and requests capabilities. Decisions are persisted so a
// granted (or denied) capability survives restarts; an undecided one
// triggers the prompter once and records the answer.
type Gate struct {
	grantsFile string
	fileOps    file.FileOperations
	prompter   Prompter
	logger     zerolog.Logger

	mu     sync.Mutex
	grants map[Capability]bool
	loaded bool
}

// NewGate creates a permission gate backed by the given grants file.
func NewGate(grantsFile string, fileOps file.FileOperations, prompter Prompter, logger zerolog.Logger) *Gate {
	return &Gate{
		grantsFile: grantsFile,
		fileOps:    fileOps,
		prompter:   prompter,
		logger:     logger,
	}
}

// Ensure returns the grant state for the capability, prompting the user if
// no decision has been recorded yet. It is idempotent: repeated calls
// re-read the stored decision without prompting again.
func (g *Gate) Ensure(ctx context.Context, capability Capability) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.loadLocked(); err != nil {
		return false, err
	}

	if granted, ok := g.grants[capability]; ok {
		return granted, nil
	}

	granted, err := g.prompter.Prompt(ctx, capability)
	if err != nil {
		return false, fmt.Errorf("failed to prompt for capability %s: %w", capability, err)
	}

	g.grants[capability] = granted
	if err := g.fileOps.WriteJsonFile(g.grantsFile, g.grants); err != nil {
		return false, fmt.Errorf("failed to persist grant decision: %w", err)
	}

	g.logger.Info().
		Str("capability", string(capability)).
		Bool("granted", granted).
		Msg("Recorded permission decision")
	return granted, nil
}

// Revoke clears the recorded decision for the capability so the next Ensure
// prompts again.
func (g *Gate) Revoke(capability Capability) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.loadLocked(); err != nil {
		return err
	}

	if _, ok := g.grants[capability]; !ok {
		return nil
	}

	delete(g.grants, capability)
	return g.fileOps.WriteJsonFile(g.grantsFile, g.grants)
}

// loadLocked reads the grants file once. A missing file means no decisions
// have been recorded yet.
func (g *Gate) loadLocked() error {
	if g.loaded {
		return nil
	}

	g.grants = make(map[Capability]bool)

	exists, err := g.fileOps.IsFileExists(g.grantsFile)
	if err != nil {
		return fmt.Errorf("failed to check grants file: %w", err)
	}
	if exists {
		if err := g.fileOps.ReadJsonFile(g.grantsFile, &g.grants); err != nil {
			return fmt.Errorf("failed to read grants file: %w", err)
		}
	}

	g.loaded = true
	return nil
}
