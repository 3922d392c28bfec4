//go:build !linux

package system

import "errors"

func platformStatFS(path string) (FSUsage, error) {
	return FSUsage{}, errors.ErrUnsupported
}
