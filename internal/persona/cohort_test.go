package persona

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildCohorts(t *testing.T) {
	texts := []string{
		"IT Director at a mid-size firm",
		"Store Manager downtown",
		"loves hiking",
		"   ",
		"",
		"  Network admin for a school district  ",
		"Store Manager downtown",
		"Apartment manager in Austin",
		"IT Director at a mid-size firm",
	}
	c := BuildCohorts(texts)

	want := map[Role][]string{
		RoleITAdmin:     {"IT Director at a mid-size firm", "Network admin for a school district"},
		RoleRetail:      {"Store Manager downtown"},
		RoleMultifamily: {"Apartment manager in Austin"},
	}
	if diff := cmp.Diff(want, c.Map()); diff != "" {
		t.Errorf("cohorts mismatch (-want +got):\n%s", diff)
	}
	if got := c.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
	if got := c.Duplicates(); got != 2 {
		t.Errorf("Duplicates() = %d, want 2", got)
	}
	if diff := cmp.Diff([]Role{RoleITAdmin, RoleRetail, RoleMultifamily}, c.Roles()); diff != "" {
		t.Errorf("Roles() mismatch (-want +got):\n%s", diff)
	}
	for _, members := range c.Map() {
		for _, m := range members {
			if strings.TrimSpace(m) == "" {
				t.Error("cohort contains an empty entry")
			}
		}
	}
}

func TestCohorts_Select(t *testing.T) {
	c := BuildCohorts([]string{
		"devops engineer one",
		"devops engineer two",
		"devops engineer three",
	})

	t.Run("limit", func(t *testing.T) {
		got, err := c.Select(RoleITAdmin, 2)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if diff := cmp.Diff([]string{"devops engineer one", "devops engineer two"}, got); diff != "" {
			t.Errorf("Select mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("limit larger than cohort", func(t *testing.T) {
		got, err := c.Select(RoleITAdmin, 10)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("len = %d, want 3", len(got))
		}
	})

	t.Run("zero means all", func(t *testing.T) {
		got, err := c.Select(RoleITAdmin, 0)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("len = %d, want 3", len(got))
		}
	})

	t.Run("result is a copy", func(t *testing.T) {
		got, _ := c.Select(RoleITAdmin, 1)
		got[0] = "mutated"
		if c.Members(RoleITAdmin)[0] != "devops engineer one" {
			t.Error("Select returned a slice aliasing the cohort")
		}
	})

	t.Run("empty cohort", func(t *testing.T) {
		_, err := c.Select(RoleRetail, 5)
		var empty *EmptyCohortError
		if !errors.As(err, &empty) {
			t.Fatalf("Select error = %v, want *EmptyCohortError", err)
		}
		if empty.Role != RoleRetail {
			t.Errorf("Role = %s, want RETAIL", empty.Role)
		}
		if diff := cmp.Diff([]Role{RoleITAdmin}, empty.Available); diff != "" {
			t.Errorf("Available mismatch (-want +got):\n%s", diff)
		}
		if !strings.Contains(err.Error(), "IT_ADMIN") {
			t.Errorf("error %q should list available cohorts", err)
		}
	})
}

func TestEmptyCohortError_NoneAvailable(t *testing.T) {
	_, err := BuildCohorts(nil).Select(RoleExecutive, 1)
	if err == nil || !strings.Contains(err.Error(), "available cohorts: none") {
		t.Errorf("error = %v, want mention of no available cohorts", err)
	}
}

func TestCohorts_Sizes(t *testing.T) {
	c := BuildCohorts([]string{"cfo", "ceo of a bank", "shop owner"})
	want := map[Role]int{RoleExecutive: 2, RoleRetail: 1}
	if diff := cmp.Diff(want, c.Sizes()); diff != "" {
		t.Errorf("Sizes mismatch (-want +got):\n%s", diff)
	}
}
