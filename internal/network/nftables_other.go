//go:build !linux

package network

import (
	"context"
	"errors"
)

type kernelSets struct{}

func (kernelSets) SetCounters(context.Context) ([]SetCounter, error) {
	return nil, errors.ErrUnsupported
}
