package ir

// Version constants for the plan schema and the generator.
const (
	// IRVersion is the canonical plan schema version.
	IRVersion = "1"

	// EngineVersion is the bit heap generator version.
	EngineVersion = "0.1.0"
)
