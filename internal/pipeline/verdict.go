// Package pipeline wires loading, cleaning, training, persistence and
// inference into the train, explore and predict entry points.
package pipeline

import "github.com/verte-zerg/parkinsight/internal/model"

// Verdict texts for each pair of voice and symptom predictions.
const (
	VerdictHealthy    model.Verdict = "No, you do not have Parkinsons Disease."
	VerdictTremor     model.Verdict = "You may have stage 1 Parkinson's disease (tremor) !.\n Consider consulting a doctor for further evaluation and monitoring."
	VerdictVoice      model.Verdict = "You may be experiencing early voice symptoms(voice changes) associated with Parkinson's disease.\nIt's advisable to seek medical advice for assessment."
	VerdictParkinsons model.Verdict = "Yes, you have Parkinsons Disease.\nIt's important to consult a doctor for further diagnosis and treatment."
)

// Diagnose maps the voice and symptom predictions onto the fixed verdict table.
// Any non-zero prediction counts as positive.
func Diagnose(voice, symptom int) model.Verdict {
	switch {
	case voice == 0 && symptom == 0:
		return VerdictHealthy
	case voice == 0:
		return VerdictTremor
	case symptom == 0:
		return VerdictVoice
	default:
		return VerdictParkinsons
	}
}
