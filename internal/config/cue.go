// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
)

// maxConfigFileSize rejects config files that cannot plausibly be hand-written.
const maxConfigFileSize = 256 * 1024

// decodeCUE validates data against the embedded #Config schema and decodes
// the unified value into a generic map for Viper.
func decodeCUE(data []byte, filename string) (map[string]any, error) {
	if len(data) > maxConfigFileSize {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, formatCUEError(userValue.Err(), filename)
	}

	// Concrete(false) because every config field is optional.
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, formatCUEError(err, filename)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return nil, formatCUEError(err, filename)
	}
	return configMap, nil
}

// mergeCUEIntoViper merges a CUE config file into v, keeping defaults and
// environment overrides in place.
func mergeCUEIntoViper(v *viper.Viper, data []byte, filename string) error {
	configMap, err := decodeCUE(data, filename)
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// formatCUEError renders CUE errors as "<file>: <path>: <message>" lines.
func formatCUEError(err error, filename string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", filename, err)
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		path := strings.Join(cueerrors.Path(e), ".")
		msg := e.Error()
		if path != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
			msg = path + ": " + msg
		}
		lines = append(lines, msg)
	}
	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filename, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filename, strings.Join(lines, "\n  "))
}
