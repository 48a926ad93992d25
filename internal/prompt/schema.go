package prompt

// FieldKind is the JSON shape of a qualitative judgment field.
type FieldKind uint8

const (
	KindText FieldKind = iota + 1
	KindTextList
)

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTextList:
		return "text-list"
	default:
		return "unknown"
	}
}

// Theme tags a field as a source for the strengths or concerns summary.
type Theme uint8

const (
	ThemeNone Theme = iota
	ThemeStrength
	ThemeConcern
)

// FieldSpec declares one qualitative field of a judgment.
type FieldSpec struct {
	Name  string
	Kind  FieldKind
	Theme Theme
	Hint  string
}

// IsList reports whether the field holds a list of strings.
func (f FieldSpec) IsList() bool {
	return f.Kind == KindTextList
}

// Schema is the output contract a judge response must satisfy.
type Schema struct {
	Name       string
	ScoreField string
	Fields     []FieldSpec
}

// Field returns the declared field called name.
func (s Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// The theme tags reproduce the marker words used to mine themes from
// free-form responses: impact, benefit, advantage and efficiency mark
// strengths; concern, challenge and consideration mark concerns, and only
// list-valued fields can carry concerns.
var (
	genericSchema = Schema{
		Name:       "generic",
		ScoreField: "resonance_score",
		Fields: []FieldSpec{
			{Name: "technical_accuracy", Kind: KindText, Hint: "how accurate and credible the technical claims are"},
			{Name: "operational_impact", Kind: KindText, Theme: ThemeStrength, Hint: "the concrete effect on day-to-day operations"},
			{Name: "security_considerations", Kind: KindText, Hint: "security or compliance questions the message raises"},
			{Name: "implementation_concerns", Kind: KindTextList, Theme: ThemeConcern, Hint: "list of short concerns about adopting this"},
		},
	}
	retailSchema = Schema{
		Name:       "retail",
		ScoreField: "purchase_intent_score",
		Fields: []FieldSpec{
			{Name: "likelihood_to_visit", Kind: KindText},
			{Name: "price_sensitivity_reaction", Kind: KindText},
			{Name: "product_interest_level", Kind: KindText},
		},
	}
	multifamilySchema = Schema{
		Name:       "multifamily",
		ScoreField: "lifestyle_fit_score",
		Fields: []FieldSpec{
			{Name: "location_appeal", Kind: KindText},
			{Name: "amenity_importance", Kind: KindText},
			{Name: "price_value_perception", Kind: KindText},
		},
	}
)

// Schemas lists every distinct schema.
func Schemas() []Schema {
	return []Schema{genericSchema, retailSchema, multifamilySchema}
}

// SchemaForScoreField resolves a schema from its score field name. Stored
// judgments carry no other schema marker.
func SchemaForScoreField(name string) (Schema, bool) {
	for _, s := range Schemas() {
		if s.ScoreField == name {
			return s, true
		}
	}
	return Schema{}, false
}
