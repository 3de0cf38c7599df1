//go:build afl

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mode_afl.go
Description: Build-time mode selection. AFL builds run the persistent loop.
*/

package driver

import "github.com/kleascm/akaylee-driver/pkg/core"

const buildMode = core.ModePersistent
