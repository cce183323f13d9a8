// Package configutil reads the json5 files the binaries boot from
// (config.json5, telemetry.json5). A config may be layered: a
// checked-in base file plus a machine-local override named
// <name>.local.<ext> that is merged on top of it.
package configutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// reads and unmarshals one config layer, reporting whether the file
// contributed anything
func readLayer[T any](path string, into *T) (bool, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(raw) == 0 {
		return false, nil
	}
	return true, json5.Unmarshal(raw, into)
}

func localPath(name string) string {
	dir := filepath.Dir(name)
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+".local"+ext)
}

// ReadConfig reads <name> and merges <name>.local.<ext> over it, the
// local file winning wherever both set a field. os.ErrNotExist is
// returned only when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T

	baseFound, err := readLayer(name, &out)
	if err != nil {
		return out, err
	}

	override := localPath(name)
	var local T
	localFound, err := readLayer(override, &local)
	if err != nil {
		return out, err
	}
	if localFound {
		err = mergo.Merge(&out, local, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Info("applied local config overrides", "path", override)
	}

	if !baseFound && !localFound {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively walks from the working directory up to the
// filesystem root looking for a config with the given name, so tests
// and binaries nested anywhere in the repo share one file.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	dir, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(dir, name))
		if !os.IsNotExist(err) {
			return config, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return zero, os.ErrNotExist
}
