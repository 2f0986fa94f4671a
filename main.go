// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/latlong/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
