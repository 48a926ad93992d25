package persona

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   Role
		wantOK bool
	}{
		{name: "it director", text: "IT Director at a mid-size firm", want: RoleITAdmin, wantOK: true},
		{name: "store manager", text: "Store Manager downtown", want: RoleRetail, wantOK: true},
		{name: "out of domain", text: "loves hiking", wantOK: false},
		{name: "empty", text: "", wantOK: false},
		{name: "whitespace and case", text: "   A DEVOPS practitioner  ", want: RoleITAdmin, wantOK: true},
		{name: "facilities", text: "A building manager for a hospital campus", want: RoleFacilities, wantOK: true},
		{name: "multifamily", text: "Leasing manager for a luxury apartment complex", want: RoleMultifamily, wantOK: true},
		{name: "executive", text: "Founder of a seed-stage startup", want: RoleExecutive, wantOK: true},
		// "it director" and "director": IT_ADMIN wins over EXECUTIVE.
		{name: "it beats executive", text: "The IT director who reports to the board", want: RoleITAdmin, wantOK: true},
		// "store owner" and "owner": RETAIL wins over EXECUTIVE.
		{name: "retail beats executive", text: "Store owner in a small town", want: RoleRetail, wantOK: true},
		// "retail operations" and "operations manager": RETAIL wins over FACILITIES.
		{name: "retail beats facilities", text: "Retail operations manager for a grocery chain", want: RoleRetail, wantOK: true},
		// "property manager" and "vp": MULTIFAMILY wins over EXECUTIVE.
		{name: "multifamily beats executive", text: "Property manager and VP of a housing co-op", want: RoleMultifamily, wantOK: true},
		// "software engineer" and "operations manager": IT_ADMIN wins over FACILITIES.
		{name: "it beats facilities", text: "Former software engineer, now operations manager", want: RoleITAdmin, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassify_PriorityIsExhaustive(t *testing.T) {
	seen := make(map[Role]bool)
	for _, r := range Priority {
		if !r.Valid() {
			t.Errorf("invalid role %d in Priority", r)
		}
		if seen[r] {
			t.Errorf("role %s listed twice in Priority", r)
		}
		seen[r] = true
		if len(r.Keywords()) == 0 {
			t.Errorf("role %s has no keywords", r)
		}
	}
	if len(seen) != len(Selectors()) {
		t.Errorf("Priority has %d roles, want %d", len(seen), len(Selectors()))
	}
}

func TestNew_Normalizes(t *testing.T) {
	p := New("  Chief Nursing Officer\n")
	if p.Original != "  Chief Nursing Officer\n" {
		t.Errorf("Original = %q, want raw text", p.Original)
	}
	if p.Normalized != "chief nursing officer" {
		t.Errorf("Normalized = %q, want %q", p.Normalized, "chief nursing officer")
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{input: "it_admin", want: RoleITAdmin},
		{input: "IT_ADMIN", want: RoleITAdmin},
		{input: "it-admin", want: RoleITAdmin},
		{input: "facilities", want: RoleFacilities},
		{input: "Executive", want: RoleExecutive},
		{input: " retail ", want: RoleRetail},
		{input: "multifamily", want: RoleMultifamily},
		{input: "brand", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrUnknownRole) {
					t.Errorf("ParseRole(%q) error = %v, want ErrUnknownRole", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestRole_TextRoundTrip(t *testing.T) {
	for _, r := range Priority {
		b, err := r.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%s): %v", r, err)
		}
		var got Role
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if got != r {
			t.Errorf("round trip %s = %s", r, got)
		}
	}
	if _, err := Role(0).MarshalText(); err == nil {
		t.Error("expected error marshaling zero role")
	}
}
