// Package observability provides logging and metrics support for the research
// timeline service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger = observability.WithQueryContext(logger, requestID, "graph algorithms")
//	logger.Info().Msg("1/6: starting bulk search")
//
// # Metrics
//
//	metrics := observability.NewMetrics("research_timeline")
//	metrics.RecordPipelineCompleted(12.5, 10)
//	metrics.RecordSelectionStrategy("citation")
//
// All Record methods are safe to call on a nil *Metrics, which lets the CLI
// run the pipeline without exporting metrics.
//
// # Standard Fields
//
//   - request_id: HTTP request identifier
//   - query: user's research topic
//   - component: owning component (acquirer, selector, ...)
//   - stage: pipeline stage name
//   - source: upstream bibliographic service
//   - llm_operation, llm_model: generation call labels
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
