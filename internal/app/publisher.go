package app

import (
	"context"
	"errors"

	"github.com/okian/supplyline/internal/domain/model"
)

type multiPublisher struct {
	publishers []Publisher
}

// MultiPublisher fans one assessment out to several publishers. Failures
// are collected, not short-circuited; a slow history insert must not block
// the Kafka emit.
func MultiPublisher(ps ...Publisher) Publisher {
	out := make([]Publisher, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return &multiPublisher{publishers: out}
}

func (m *multiPublisher) PublishAssessment(ctx context.Context, e model.OEMExposure) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.PublishAssessment(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
