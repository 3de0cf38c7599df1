//go:build libfuzzer && !afl && !honggfuzz

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mode_libfuzzer.go
Description: Build-time mode selection. libFuzzer builds provide their own main; running this one is a mismatch.
*/

package driver

import "github.com/kleascm/akaylee-driver/pkg/core"

const buildMode = core.ModeLibFuzzer
