package orchestrator

import (
	"fmt"

	"github.com/spigell/resume-ranker/internal/models"
)

var transitions = map[models.BatchState][]models.BatchState{
	models.StatePending:                {models.StateExtractingRequirements, models.StateAborted},
	models.StateExtractingRequirements: {models.StateEvaluatingCandidates, models.StateExtractionFailed, models.StateAborted},
	models.StateEvaluatingCandidates:   {models.StateCompleted, models.StateAborted},
}

// CanTransition reports whether a batch may move from one state to another.
func CanTransition(from, to models.BatchState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to models.BatchState) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid batch state transition %s -> %s", from, to)
	}
	return nil
}
