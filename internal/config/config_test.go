package config

import "testing"

func TestNewEnablesBothWarningsByDefault(t *testing.T) {
	c := New()
	if !c.IsEnabled(WarnDivByZero) || !c.IsEnabled(WarnOOBIndex) {
		t.Fatalf("expected both warnings enabled by default")
	}
}

func TestApplyFlagNameDisablesSpecificWarning(t *testing.T) {
	c := New()
	if !c.ApplyFlagName("div-by-zero", false) {
		t.Fatalf("expected div-by-zero to be a recognized flag name")
	}
	if c.IsEnabled(WarnDivByZero) {
		t.Fatalf("expected div-by-zero disabled")
	}
	if !c.IsEnabled(WarnOOBIndex) {
		t.Fatalf("expected oob-index to remain enabled")
	}
}

func TestApplyFlagNameAllTogglesEverything(t *testing.T) {
	c := New()
	if !c.ApplyFlagName("all", false) {
		t.Fatalf("expected 'all' to be recognized")
	}
	if c.IsEnabled(WarnDivByZero) || c.IsEnabled(WarnOOBIndex) {
		t.Fatalf("expected every warning disabled after -no-all")
	}
	if !c.ApplyFlagName("all", true) {
		t.Fatalf("expected 'all' to be recognized on re-enable")
	}
	if !c.IsEnabled(WarnDivByZero) || !c.IsEnabled(WarnOOBIndex) {
		t.Fatalf("expected every warning re-enabled after -all")
	}
}

func TestApplyFlagNameUnknownReturnsFalse(t *testing.T) {
	c := New()
	if c.ApplyFlagName("nonexistent", true) {
		t.Fatalf("expected an unrecognized flag name to return false")
	}
}
