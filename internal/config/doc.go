// SPDX-License-Identifier: MIT

// Package config loads and validates vid-text configuration with the
// precedence ENV > YAML file > defaults. All environment variables use
// the VIDTEXT_ prefix.
package config
