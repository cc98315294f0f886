package types

import "errors"

// Sentinel errors for vesmapper operations.
var (
	// ErrConfiguration indicates a registry or enumeration has no entry for a
	// tag that reached validation or translation. Unreachable for well-typed
	// documents; surfaced instead of emitting partial output.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidDocument indicates translation was requested for a document
	// that failed validation.
	ErrInvalidDocument = errors.New("mapping rules document is invalid")

	// ErrUnknownActionType indicates an action's actionType tag is not one of
	// the supported kinds.
	ErrUnknownActionType = errors.New("unknown action type")

	// ErrMalformedCondition indicates a condition node is neither a leaf nor a group.
	ErrMalformedCondition = errors.New("malformed condition")

	// ErrConditionTooDeep indicates a condition tree nested deeper than
	// MaxConditionDepth.
	ErrConditionTooDeep = errors.New("condition nesting too deep")

	// ErrDuplicateRuleUID indicates the rules object repeats a uid.
	ErrDuplicateRuleUID = errors.New("duplicate rule uid")

	// ErrDocumentTooLarge indicates the encoded document exceeds MaxDocumentSize.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size")

	// ErrTooManyRules indicates the document exceeds MaxRulesPerDocument.
	ErrTooManyRules = errors.New("document has too many rules")

	// ErrCatalogUnavailable indicates the VES catalog could not be loaded.
	ErrCatalogUnavailable = errors.New("VES catalog unavailable")
)
