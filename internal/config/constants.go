package config

const SourceFileExt = ".facto"

// MaxImportDepth bounds the nesting of imports. The cycle check only
// catches exact file re-entry, so depth is limited independently.
const MaxImportDepth = 64

// MaxSpecDepth bounds the nesting of construction specs within one
// statement.
const MaxSpecDepth = 64

// Primitive type names usable in type specifiers.
const (
	BoolTypeName   = "bool"
	IntTypeName    = "int"
	DoubleTypeName = "double"
	StringTypeName = "string"
)
