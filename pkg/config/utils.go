package config

import (
	"errors"
	"os"
	"path/filepath"
)

// findEnvFile resolves name against the working directory and each of its
// parents, returning the first existing regular file. An empty name means ".env".
func findEnvFile(name string) (string, error) {
	if name == "" {
		name = ".env"
	}
	if filepath.IsAbs(name) {
		return existingFile(name)
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if path, err := existingFile(filepath.Join(dir, name)); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

func existingFile(path string) (string, error) {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "", err
	case info.IsDir():
		return "", errors.New(path + " is a directory")
	}
	return path, nil
}
