package tryon

import "testing"

func TestMaterialByName_KnownMaterials(t *testing.T) {
	for _, name := range []string{"gold", "silver", "diamond", "pearl", "platinum", "rose-gold"} {
		p := MaterialByName(name)
		if p.Name != name {
			t.Errorf("MaterialByName(%q).Name = %q", name, p.Name)
		}
		if p.Opacity <= 0 || p.Opacity > 1 {
			t.Errorf("material %q has out-of-range opacity %f", name, p.Opacity)
		}
	}
}

func TestMaterialByName_UnknownFallsBackToGold(t *testing.T) {
	// Unknown materials must render as gold, never as a zero profile.
	gold := MaterialByName("gold")

	for _, name := range []string{"", "obsidian", "GOLD", "copper"} {
		p := MaterialByName(name)
		if p != gold {
			t.Errorf("MaterialByName(%q) = %+v, want gold profile", name, p)
		}
	}
}

func TestMaterialNames(t *testing.T) {
	names := MaterialNames()
	if len(names) != 6 {
		t.Errorf("expected 6 material names, got %d: %v", len(names), names)
	}

	found := false
	for _, n := range names {
		if n == "gold" {
			found = true
		}
	}
	if !found {
		t.Error("expected gold in material names")
	}
}
