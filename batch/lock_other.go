//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd
// +build !linux,!darwin,!freebsd,!netbsd,!openbsd

package batch

func lockDir(dir string) (func(), error) {
	return func() {}, nil
}
