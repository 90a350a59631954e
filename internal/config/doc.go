// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

// Package config provides layered configuration loading for Criticus using
// Koanf v2.
//
// Configuration is resolved in three layers with clear precedence:
//
//  1. Built-in defaults (structs provider)
//  2. Optional YAML config file (CONFIG_PATH or the default search paths)
//  3. Environment variables (highest priority)
//
// Environment variables use flat names mapped to nested koanf paths, e.g.
// SIMILARITY_MIN_COMMON_ITEMS -> similarity.min_common_items. Unknown
// variables are ignored so unrelated environment noise cannot leak into the
// configuration.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("invalid configuration")
//	}
package config
