package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/okian/supplyline/internal/domain/model"
)

// AssessmentPublisher emits finished assessments to the scored topic,
// keyed by OEM so per-OEM ordering is preserved.
type AssessmentPublisher struct {
	writer *kafka.Writer
}

// NewAssessmentPublisher creates a publisher for the given brokers/topic.
func NewAssessmentPublisher(brokers []string, topic string) *AssessmentPublisher {
	return &AssessmentPublisher{writer: NewWriter(brokers, topic)}
}

// PublishAssessment writes one assessment.
func (p *AssessmentPublisher) PublishAssessment(ctx context.Context, e model.OEMExposure) error {
	if err := PublishJSON(ctx, p.writer, e.OEMID, e); err != nil {
		return fmt.Errorf("publish assessment for %s: %w", e.OEMID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *AssessmentPublisher) Close() error {
	return p.writer.Close()
}
