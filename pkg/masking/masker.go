package masking

// Masker is the interface for code-based maskers that need structural
// awareness beyond regex matching, such as parsing YAML/JSON to mask
// Kubernetes Secrets without touching ConfigMaps.
type Masker interface {
	// Name returns the unique identifier for this masker. Pattern groups
	// reference maskers by this name.
	Name() string

	// AppliesTo performs a lightweight check on whether this masker
	// should process the data. Should be fast (string contains, not parsing).
	AppliesTo(data string) bool

	// Mask applies masking logic and returns the masked result.
	// Must be defensive: return original data on parse/processing errors.
	Mask(data string) string
}
