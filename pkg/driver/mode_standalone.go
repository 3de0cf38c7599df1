//go:build !afl && !honggfuzz && !libfuzzer

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mode_standalone.go
Description: Build-time mode selection. Standalone replay is the default: no engine symbols are linked in.
*/

package driver

import "github.com/kleascm/akaylee-driver/pkg/core"

const buildMode = core.ModeStandalone
