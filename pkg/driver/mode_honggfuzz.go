//go:build honggfuzz && !afl

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mode_honggfuzz.go
Description: Build-time mode selection. HonggFuzz builds run the iterator loop.
*/

package driver

import "github.com/kleascm/akaylee-driver/pkg/core"

const buildMode = core.ModeIterator
