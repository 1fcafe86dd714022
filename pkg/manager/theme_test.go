package manager

import (
	"strings"
	"testing"
)

func TestLoadTheme_ExplicitNameWins(t *testing.T) {
	t.Setenv(ThemeEnvVar, "light")
	if th := LoadTheme("catppuccin"); th.Name != "catppuccin" || !th.Enabled {
		t.Fatalf("expected catppuccin, got %q enabled=%v", th.Name, th.Enabled)
	}
	if th := LoadTheme(""); th.Name != "light" {
		t.Fatalf("expected env theme light, got %q", th.Name)
	}
}

func TestNoTheme_PlainText(t *testing.T) {
	th := NoTheme()
	if th.Enabled {
		t.Fatalf("expected theming disabled")
	}
	if got := th.AccentText("sw1"); got != "sw1" {
		t.Fatalf("expected plain text, got %q", got)
	}
}

func TestRenderHelp_MentionsCommands(t *testing.T) {
	out := renderHelp(60, NoTheme())
	if !strings.Contains(out, "switch-manager") || !strings.Contains(out, "traceroute") {
		t.Fatalf("unexpected help text:\n%s", out)
	}
}
