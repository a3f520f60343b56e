//go:build !cgo

package hal

import "errors"

func RunWindow(_ Options, _ NewAppFunc) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1); try -headless or -term")
}
