package scalefield

const (
	// TypeName is the mapping type implemented by this package.
	TypeName = "scaled_float"

	DefaultIndex           = true
	DefaultDocValues       = true
	DefaultStore           = false
	DefaultCoerce          = true
	DefaultIgnoreMalformed = false
)
