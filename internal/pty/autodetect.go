package pty

import (
	"fmt"
	"os"
)

// DetectShell finds the first available shell in order of preference:
// $SHELL, /bin/bash, /bin/zsh, /bin/sh. Returns an error if none are
// found.
func DetectShell() (string, error) {
	if shell := os.Getenv("SHELL"); shell != "" && isExecutable(shell) {
		return shell, nil
	}

	for _, candidate := range []string{"/bin/bash", "/bin/zsh", "/bin/sh"} {
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no shell found: checked $SHELL, /bin/bash, /bin/zsh, /bin/sh")
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0111 != 0
}
