package timeline

// Recorder receives pipeline measurements. *observability.Metrics satisfies it.
type Recorder interface {
	RecordStage(stage string, durationSeconds float64)
	RecordCandidates(count int)
	RecordPipelineCompleted(durationSeconds float64, entries int)
	RecordPipelineFailed(durationSeconds float64)
	RecordSelectionStrategy(strategy string)
	RecordFallback(stage, reason string)
}

type nopRecorder struct{}

func (nopRecorder) RecordStage(string, float64)          {}
func (nopRecorder) RecordCandidates(int)                 {}
func (nopRecorder) RecordPipelineCompleted(float64, int) {}
func (nopRecorder) RecordPipelineFailed(float64)         {}
func (nopRecorder) RecordSelectionStrategy(string)       {}
func (nopRecorder) RecordFallback(string, string)        {}
