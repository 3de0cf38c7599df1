// Author: KleaSCM
// Email: KleaSCM@gmail.com
// File: target.go
// Description: Demonstration harness binary. Links the bugcheck target into the Akaylee
// Driver; build with -tags afl or -tags honggfuzz for the engine loops.

package main

import (
	"github.com/kleascm/akaylee-driver/demo/bugcheck"
	"github.com/kleascm/akaylee-driver/pkg/driver"
)

func main() {
	driver.Main(bugcheck.Target{})
}
