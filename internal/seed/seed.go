// Package seed loads starter tickets from a YAML file.
//
// The file format is:
//
//	tickets:
//	  - names: Ada & Grace
//	    location: 4B
//	    issue: Firebase won't save record
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/help-queue/internal/domain"
)

// File is the on-disk seed document.
type File struct {
	Tickets []domain.TicketFields `yaml:"tickets"`
}

// Creator adds a ticket.
type Creator interface {
	Create(ctx context.Context, fields domain.TicketFields) (*domain.Ticket, error)
}

// Load parses a seed document. Every ticket must have all fields. An empty
// document yields no tickets.
func Load(r io.Reader) ([]domain.TicketFields, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	for i, t := range f.Tickets {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("ticket %d: %w", i+1, err)
		}
		f.Tickets[i] = t.Normalize()
	}
	return f.Tickets, nil
}

// Apply creates the tickets in order and returns how many were created. It stops at
// the first failure.
func Apply(ctx context.Context, creator Creator, tickets []domain.TicketFields) (int, error) {
	for i, fields := range tickets {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := creator.Create(ctx, fields); err != nil {
			return i, fmt.Errorf("create ticket %d: %w", i+1, err)
		}
	}
	return len(tickets), nil
}
