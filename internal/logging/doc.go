// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

// Package logging provides centralized zerolog-based structured logging for Criticus.
//
// All components log through a single global zerolog logger configured once at
// startup. JSON output is the production default; console output is available
// for development. The package also ships an slog adapter so libraries that
// speak log/slog (sutureslog in particular) end up in the same stream.
//
// # Quick Start
//
//	import "github.com/tomtom215/criticus/internal/logging"
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Int64("user_id", id).Msg("recommendations generated")
//	logging.Error().Err(err).Msg("similarity refresh failed")
//
// Component loggers carry a fixed field:
//
//	simLog := logging.With().Str("component", "similarity").Logger()
//
// # Conventions
//
// Always terminate chains with .Msg() or .Send(); prefer structured fields over
// Msgf formatting. Request-scoped loggers travel in the context and are
// retrieved with FromContext.
package logging
