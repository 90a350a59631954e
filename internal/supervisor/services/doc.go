// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

// Package services contains suture.Service adapters for components whose
// lifecycle does not already match suture's Serve(ctx) pattern.
//
// The scheduler and the rating-event subscriber implement suture.Service
// directly and need no adapter. The HTTP server does not: http.Server
// blocks in ListenAndServe and shuts down through a separate Shutdown
// call, so HTTPServerService bridges the two lifecycles.
package services
