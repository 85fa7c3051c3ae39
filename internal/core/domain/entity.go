package domain

// EntityType identifies one of the fixed record categories the engine
// searches. The set is closed; per-type behavior is driven by the static
// configuration below rather than by runtime branching on table names.
type EntityType string

const (
	TypeVehicle      EntityType = "vehicles"
	TypeOrganization EntityType = "organizations"
	TypePerson       EntityType = "people"
	TypeMedia        EntityType = "media"
	TypeSource       EntityType = "sources"
)

// PrimaryTypes are searched through the full waterfall (full-text, pattern
// fallback, fuzzy widen). Secondary types run a single substring strategy.
var PrimaryTypes = []EntityType{TypeVehicle, TypeOrganization, TypePerson}

// EntityConfig is the static per-type tuning for retrieval and assembly.
type EntityConfig struct {
	// FuzzyMinimum is the result count below which the similarity widen
	// tier fires for this type. Zero disables the widen tier.
	FuzzyMinimum int
	// SectionCap bounds the per-type section in the response.
	SectionCap int
	// FlatLead / FlatTrail bound this type's contribution to the flat
	// ranked list when it leads the composition vs. when it trails.
	FlatLead  int
	FlatTrail int
	// BaseBoost nudges ordering between sections when scores are close.
	BaseBoost float64
	// CanonicalBoost rewards an exact full-token match against the type's
	// canonical field (vehicle make, organization or source domain).
	CanonicalBoost float64
}

var entityConfigs = map[EntityType]EntityConfig{
	TypeVehicle:      {FuzzyMinimum: 8, SectionCap: 20, FlatLead: 10, FlatTrail: 6, BaseBoost: 0.10, CanonicalBoost: 0.20},
	TypeOrganization: {FuzzyMinimum: 4, SectionCap: 10, FlatLead: 6, FlatTrail: 4, BaseBoost: 0.07, CanonicalBoost: 0.15},
	TypePerson:       {FuzzyMinimum: 4, SectionCap: 10, FlatLead: 6, FlatTrail: 4, BaseBoost: 0.05, CanonicalBoost: 0},
	TypeMedia:        {FuzzyMinimum: 0, SectionCap: 24, FlatLead: 12, FlatTrail: 6, BaseBoost: 0.05, CanonicalBoost: 0},
	TypeSource:       {FuzzyMinimum: 0, SectionCap: 10, FlatLead: 5, FlatTrail: 4, BaseBoost: 0.03, CanonicalBoost: 0.15},
}

// ConfigFor returns the static configuration for an entity type.
func ConfigFor(t EntityType) EntityConfig {
	return entityConfigs[t]
}

// AllTypes lists every entity type in section order.
func AllTypes() []EntityType {
	return []EntityType{TypeVehicle, TypeOrganization, TypePerson, TypeMedia, TypeSource}
}
