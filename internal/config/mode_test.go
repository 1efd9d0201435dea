package config

import "testing"

func TestDetectModeHonorsExplicitOverride(t *testing.T) {
	t.Setenv("TALENTGRAPH_MODE", "ci")
	if got := DetectMode(); got != ModeCI {
		t.Errorf("DetectMode() = %v, want %v", got, ModeCI)
	}

	t.Setenv("TALENTGRAPH_MODE", "production")
	if got := DetectMode(); got != ModePackaged {
		t.Errorf("DetectMode() = %v, want %v", got, ModePackaged)
	}
}

func TestDetectModeFallsBackToCIEnvVar(t *testing.T) {
	t.Setenv("TALENTGRAPH_MODE", "")
	t.Setenv("GITHUB_ACTIONS", "true")
	if got := DetectMode(); got != ModeCI {
		t.Errorf("DetectMode() = %v, want %v", got, ModeCI)
	}
}

func TestDeploymentModePredicates(t *testing.T) {
	if !ModePackaged.RequiresSecureCredentials() {
		t.Error("packaged mode should require secure credentials")
	}
	if !ModeCI.RequiresSecureCredentials() {
		t.Error("CI mode should require secure credentials")
	}
	if ModeDevelopment.RequiresSecureCredentials() {
		t.Error("development mode should not require secure credentials")
	}
	if !ModePackaged.AllowsInteractivePrompts() {
		t.Error("packaged mode should allow interactive prompts")
	}
	if ModeCI.AllowsInteractivePrompts() {
		t.Error("CI mode should not allow interactive prompts")
	}
}
