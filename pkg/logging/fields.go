package logging

// Common structured log field keys.
const (
	FieldCreatureID = "creature_id"
	FieldRunID      = "run_id"
	FieldOp         = "op"
	FieldCount      = "count"
	FieldGeneration = "generation"
	FieldQuery      = "query"
	FieldRequestID  = "request_id"
	FieldPath       = "path"
	FieldMethod     = "method"
	FieldStatusCode = "status_code"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
)
