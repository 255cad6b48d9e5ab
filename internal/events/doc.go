// Package events publishes timeline lifecycle events.
//
// # Event Types
//
//   - timeline.generated: a timeline was produced and returned
//   - timeline.failed: a timeline request aborted with an upstream error
//
// Events carry counts, the selection strategy used and timings. Timeline
// contents are never included.
//
// # Usage
//
//	emitter := events.NewEmitter(events.EmitterConfig{ServiceName: "research-timeline-service"})
//	sink := events.NewKafkaSink(events.KafkaConfig{
//	    Brokers: []string{"localhost:9092"},
//	    Topic:   "events.research_timeline",
//	})
//	publisher := events.NewPublisher(emitter, sink, metrics, logger)
//	defer publisher.Close()
//
// With Kafka disabled, pass events.NoopSink{} (or nil) as the sink.
package events
