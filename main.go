// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/cardscape/encounters/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
