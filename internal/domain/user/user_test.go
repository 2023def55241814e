package user

import "testing"

func TestValidateUsername(t *testing.T) {
	ok := []string{"alice1", "alice_01", "a1234", "john-doe", "alice.dev"}
	for _, v := range ok {
		if err := ValidateUsername(v); err != nil {
			t.Fatalf("expected valid username %q: %v", v, err)
		}
	}
	bad := []string{"", "1alice", "a", "ab", "a_", "a..", "a*", "toolongusername_over_32_chars_abc"}
	for _, v := range bad {
		if err := ValidateUsername(v); err == nil {
			t.Fatalf("expected invalid username %q", v)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("alice@example.com"); err != nil {
		t.Fatalf("expected valid email: %v", err)
	}
	for _, v := range []string{"", "alice", "alice@", "@example.com", "a b@example.com"} {
		if err := ValidateEmail(v); err == nil {
			t.Fatalf("expected invalid email %q", v)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("S3curePassword", "alice"); err != nil {
		t.Fatalf("expected valid password: %v", err)
	}
	if err := ValidatePassword("Sh0rt", "alice"); err == nil {
		t.Fatalf("expected error for short password")
	}
	if err := ValidatePassword("alllowercase123", "alice"); err == nil {
		t.Fatalf("expected error for missing upper")
	}
	if err := ValidatePassword("ALLUPPERCASE123", "alice"); err == nil {
		t.Fatalf("expected error for missing lower")
	}
	if err := ValidatePassword("NoDigitsAtAllHere", "alice"); err == nil {
		t.Fatalf("expected error for missing digit")
	}
	if err := ValidatePassword("AlicePassw0rd", "alice"); err == nil {
		t.Fatalf("expected error for containing username")
	}
}

func TestValidatePlan(t *testing.T) {
	if err := ValidatePlan(PlanFree); err != nil {
		t.Fatalf("expected FREE to be valid: %v", err)
	}
	if err := ValidatePlan(Plan("GOLD")); err == nil {
		t.Fatal("expected invalid plan")
	}
}
