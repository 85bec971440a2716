package config

import (
	"fmt"
	"os"
	"strings"
)

// Secret describes where a secret value comes from. File wins over Value.
type Secret struct {
	Name  string
	Value string
	File  string
}

// LoadSecret resolves s and returns the trimmed value.
func LoadSecret(s Secret) (string, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(s.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		s.Value = string(data)
	}

	secret := strings.TrimSpace(s.Value)
	if secret == "" {
		if file != "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
