package contracts

import "fmt"

// SchemaVersion is bumped whenever the engineered feature set changes
// in name, order, or meaning. Persisted artifacts carry the version and
// are rejected on load when it no longer matches.
const SchemaVersion = 1

// FeatureSchema is the explicit contract between training and
// inference: the exact feature names, in the exact column order the
// model was fit on.
type FeatureSchema struct {
	Version int      `json:"version"`
	Names   []string `json:"names"`
}

// NewFeatureSchema builds a schema at the current version
func NewFeatureSchema(names []string) FeatureSchema {
	out := make([]string, len(names))
	copy(out, names)
	return FeatureSchema{Version: SchemaVersion, Names: out}
}

// Validate checks that a feature vector built from names can be fed to a
// model trained under this schema. Name and order identity are both
// required; a mismatch is a configuration error, not a type error.
func (s FeatureSchema) Validate(names []string) error {
	if s.Version != SchemaVersion {
		return fmt.Errorf("%w: artifact schema v%d, runtime schema v%d",
			ErrArtifactMismatch, s.Version, SchemaVersion)
	}
	if len(names) != len(s.Names) {
		return fmt.Errorf("%w: expected %d features, got %d",
			ErrArtifactMismatch, len(s.Names), len(names))
	}
	for i, want := range s.Names {
		if names[i] != want {
			return fmt.Errorf("%w: feature %d is %q, expected %q",
				ErrArtifactMismatch, i, names[i], want)
		}
	}
	return nil
}
