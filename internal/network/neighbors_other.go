//go:build !linux

package network

import (
	"context"
	"errors"
)

type netlinkNeighbors struct{}

func (netlinkNeighbors) Neighbors(context.Context) ([]Neighbor, error) {
	return nil, errors.ErrUnsupported
}
