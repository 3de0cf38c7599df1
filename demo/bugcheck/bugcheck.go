/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: bugcheck.go
Description: Demonstration target for the Akaylee Driver. Crashes with a nil pointer
write whenever the input contains the bytes "bug", and returns normally otherwise.
*/

package bugcheck

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

var marker = []byte("bug")

// Target is the demonstration function under test
type Target struct {
	// Out receives the crash banner, stdout when nil
	Out io.Writer
}

// TestOneInput crashes on any input containing "bug"
func (t Target) TestOneInput(data []byte) int {
	if bytes.Contains(data, marker) {
		out := t.Out
		if out == nil {
			out = os.Stdout
		}
		fmt.Fprintln(out, "Found the bug! Crashing as demonstration...")

		var crash *int
		*crash = 42
	}
	return 0
}
