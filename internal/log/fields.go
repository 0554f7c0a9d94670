// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID  = "request_id"
	FieldServiceRef = "service_ref"
	FieldChannelID  = "channel_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Catalog fields
	FieldCatalog  = "catalog"
	FieldCategory = "category"
	FieldSource   = "source"
	FieldPattern  = "pattern"
	FieldLine     = "line"

	// Path / URL fields
	FieldPath = "path"
	FieldURL  = "url"
)
