package schema

import "errors"

// Sentinel errors for schema and generation failures. All of them are fatal:
// generation stops at the first one and no partial output is produced.
var (
	// ErrInvalidSchema is returned when the descriptor model cannot be loaded
	// or is internally inconsistent (duplicate names).
	ErrInvalidSchema = errors.New("nodegen: invalid schema")

	// ErrDanglingReference is returned when a field references a message or
	// enum that is not part of the catalog.
	ErrDanglingReference = errors.New("nodegen: dangling type reference")

	// ErrMissingRoot is returned when the designated root message does not
	// exist in the catalog.
	ErrMissingRoot = errors.New("nodegen: root message not found")

	// ErrNoVariants is returned when the root message has no singular
	// message-typed field to turn into a variant.
	ErrNoVariants = errors.New("nodegen: root message has no message variants")

	// ErrDuplicatePayload is returned when two variants share a payload type,
	// which would make the payload-to-variant mapping ambiguous.
	ErrDuplicatePayload = errors.New("nodegen: payload type claimed by more than one variant")

	// ErrNameCollision is returned when two schema names normalize to the same
	// generated identifier.
	ErrNameCollision = errors.New("nodegen: generated identifier collision")

	// ErrInvalidName is returned when a schema name normalizes to an empty or
	// otherwise unusable identifier.
	ErrInvalidName = errors.New("nodegen: name does not produce a valid identifier")
)

// IsInvalidSchemaErr returns true if err is or wraps ErrInvalidSchema.
func IsInvalidSchemaErr(err error) bool {
	return errors.Is(err, ErrInvalidSchema)
}

// IsDanglingReferenceErr returns true if err is or wraps ErrDanglingReference.
func IsDanglingReferenceErr(err error) bool {
	return errors.Is(err, ErrDanglingReference)
}

// IsMissingRootErr returns true if err is or wraps ErrMissingRoot.
func IsMissingRootErr(err error) bool {
	return errors.Is(err, ErrMissingRoot)
}

// IsNoVariantsErr returns true if err is or wraps ErrNoVariants.
func IsNoVariantsErr(err error) bool {
	return errors.Is(err, ErrNoVariants)
}

// IsDuplicatePayloadErr returns true if err is or wraps ErrDuplicatePayload.
func IsDuplicatePayloadErr(err error) bool {
	return errors.Is(err, ErrDuplicatePayload)
}

// IsNameCollisionErr returns true if err is or wraps ErrNameCollision.
func IsNameCollisionErr(err error) bool {
	return errors.Is(err, ErrNameCollision)
}
