package persona_test

import (
	"testing"

	"github.com/avetisov/assistant-desk/internal/model/persona"
)

func TestFindByID(t *testing.T) {
	store := persona.NewMemoryStore(persona.Seed())

	p, ok := store.FindByID("ACCOUNTANT")
	if !ok {
		t.Fatal("expected the accountant persona")
	}
	if p.SystemPrompt == "" {
		t.Fatal("expected a non-empty system prompt")
	}

	if _, ok := store.FindByID("ASTROLOGER"); ok {
		t.Fatal("unexpected persona")
	}
}

func TestDefaultPersonaHasEmptyPrompt(t *testing.T) {
	store := persona.NewMemoryStore(persona.Seed())

	p, ok := store.FindByID(persona.DefaultID)
	if !ok {
		t.Fatal("expected the default persona")
	}
	if p.SystemPrompt != "" {
		t.Fatalf("default persona must carry an empty system prompt, got %q", p.SystemPrompt)
	}
}

func TestSeedIsClosedEnumeration(t *testing.T) {
	store := persona.NewMemoryStore(persona.Seed())

	seen := make(map[string]bool)
	for _, p := range store.List() {
		if seen[p.ID] {
			t.Fatalf("duplicate persona id %s", p.ID)
		}
		seen[p.ID] = true
	}
	if len(seen) != 9 {
		t.Fatalf("expected 9 personas, got %d", len(seen))
	}
}
