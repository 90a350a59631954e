// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

// Package validation wraps go-playground/validator v10 behind a thread-safe
// singleton with recommendation-domain validators and human-readable error
// translation.
//
// # Quick Start
//
//	type RatingSubmission struct {
//	    ItemID int64   `validate:"required,gt=0"`
//	    Score  float64 `validate:"score"`
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    var req RatingSubmission
//	    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
//	        // handle decode error
//	    }
//
//	    if verr := validation.ValidateStruct(&req); verr != nil {
//	        respondError(w, http.StatusBadRequest, verr.ToAPIError())
//	        return
//	    }
//
//	    // proceed with valid request
//	}
//
// # Validation Tags
//
// Beyond the library's built-ins (required, oneof, gte, lte, gt, lt, min,
// max), the package registers:
//   - score: a finite rating score on the 0-100 scale; NaN and
//     out-of-scale values are rejected. Works without required, since a
//     zero score is a legal rating.
//
// # Error Types
//
// ValidationError describes one failed field (field, tag, param, value,
// message). RequestValidationError aggregates them; ToAPIError converts
// the collection to the models.APIError wire shape with code
// VALIDATION_ERROR:
//
//	// Single field error
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "Score must be a rating between 0 and 100",
//	    "details": {"field": "Score", "tag": "score", "value": 150}
//	}
//
//	// Multiple field errors
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "ItemID: ItemID is required; Score: Score must be a rating between 0 and 100",
//	    "details": {"fields": [...]}
//	}
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use.
// Struct reflection info is cached after the first validation of each type,
// so repeated request validation stays cheap.
package validation
