package service

import (
	"context"
	"errors"

	"clinicflow/internal/domain/entity"
)

// EventPublisher delivers flow events after the change that produced them committed
type EventPublisher interface {
	Publish(ctx context.Context, event entity.FlowEvent) error
}

type multiPublisher []EventPublisher

// NewMultiPublisher fans an event out to every publisher. Nil publishers are skipped.
func NewMultiPublisher(publishers ...EventPublisher) EventPublisher {
	var m multiPublisher
	for _, p := range publishers {
		if p != nil {
			m = append(m, p)
		}
	}
	return m
}

// Publish delivers to all publishers and joins their errors
func (m multiPublisher) Publish(ctx context.Context, event entity.FlowEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
