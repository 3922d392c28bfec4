//go:build linux

package system

import "golang.org/x/sys/unix"

func platformStatFS(path string) (FSUsage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return FSUsage{}, err
	}
	bs := uint64(st.Bsize)
	return FSUsage{
		Total:     st.Blocks * bs,
		Free:      st.Bfree * bs,
		Available: st.Bavail * bs,
	}, nil
}
