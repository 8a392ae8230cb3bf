package points

import "testing"

func TestNormalizeTag(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{raw: "Completed-Foundations", want: "completed-foundations"},
		{raw: "  completed-data-literacy  ", want: "completed-data-literacy"},
		{raw: "", want: ""},
		{raw: "   ", want: ""},
	}

	for _, tc := range cases {
		if got := NormalizeTag(tc.raw); got != tc.want {
			t.Fatalf("NormalizeTag(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestEligibilityDefaults(t *testing.T) {
	e := NewEligibility(nil, "")

	for _, tag := range DefaultEligibleTags {
		if !e.TagEligible(tag) {
			t.Fatalf("TagEligible(%q) = false, want true", tag)
		}
	}
	if e.TagEligible("newsletter-signup") {
		t.Fatal("TagEligible(newsletter-signup) = true, want false")
	}

	if e.AccountEligible(AccountTypeStudent) {
		t.Fatal("AccountEligible(student) = true, want false")
	}
	if !e.AccountEligible(AccountTypeEducator) {
		t.Fatal("AccountEligible(educator) = false, want true")
	}
	if e.AccountEligible(" Student ") {
		t.Fatal("AccountEligible( Student ) = true, want false")
	}
}

func TestEligibilityCustomPolicy(t *testing.T) {
	e := NewEligibility([]string{" Completed-Pilot ", ""}, "trial")

	if !e.TagEligible("completed-pilot") {
		t.Fatal("TagEligible(completed-pilot) = false, want true")
	}
	if e.TagEligible("completed-foundations") {
		t.Fatal("custom allowlist should replace the defaults")
	}
	if e.AccountEligible("trial") {
		t.Fatal("AccountEligible(trial) = true, want false")
	}
	if !e.AccountEligible(AccountTypeStudent) {
		t.Fatal("AccountEligible(student) = false, want true under custom policy")
	}
}

func TestValidReviewerRole(t *testing.T) {
	if !ValidReviewerRole(RoleReviewer) {
		t.Fatal("ValidReviewerRole(reviewer) = false, want true")
	}
	if !ValidReviewerRole(" Admin ") {
		t.Fatal("ValidReviewerRole( Admin ) = false, want true")
	}
	if ValidReviewerRole(RoleMember) {
		t.Fatal("ValidReviewerRole(member) = true, want false")
	}
	if ValidReviewerRole("") {
		t.Fatal("ValidReviewerRole(empty) = true, want false")
	}
}
