// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package posix

import (
	"os"
	"strings"
)

// DefaultProgramName is used when the program name cannot be derived from argv.
const DefaultProgramName = "trust-anchor-resolver"

// GetExecutableName returns the name the binary was invoked as, without
// directory or .exe suffix. It is used for cobra usage strings.
func GetExecutableName() string { return ProgramName(os.Args, DefaultProgramName) }

// ProgramName derives a clean program name from args[0]. Both '/' and '\'
// are treated as separators so a Windows path seen on a Unix host still
// resolves to its last component.
func ProgramName(args []string, fallback string) string {
	if len(args) == 0 {
		return fallback
	}

	name := args[0]
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".exe")

	if name == "" || name == "." {
		return fallback
	}
	return name
}
