//go:build unix

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stop_unix.go
Description: Persistent-mode handshake on Unix. afl-fuzz waits for the target to stop
itself and resumes it with SIGCONT once the next input is in place.
*/

package engine

import (
	"os"
	"syscall"
)

func stopSelf() error {
	return syscall.Kill(os.Getpid(), syscall.SIGSTOP)
}
