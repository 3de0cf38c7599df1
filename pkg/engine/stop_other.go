//go:build !unix

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stop_other.go
Description: Persistent-mode handshake stub for platforms without job-control signals.
*/

package engine

import "errors"

func stopSelf() error {
	return errors.New("persistent mode requires a unix platform")
}
