package idgen_test

import (
	"regexp"
	"testing"

	"github.com/voxway/voxgate/adapters/idgen"
)

func TestUUID_Format(t *testing.T) {
	id := idgen.UUID{}.New()

	re := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	if !re.MatchString(id) {
		t.Errorf("ID %s is not a UUID v4", id)
	}
}

func TestUUID_Unique(t *testing.T) {
	g := idgen.UUID{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := g.New()
		if seen[id] {
			t.Fatalf("duplicate ID %s", id)
		}
		seen[id] = true
	}
}

func TestSequential(t *testing.T) {
	g := idgen.NewSequential("u_")
	if id := g.New(); id != "u_1" {
		t.Errorf("first ID = %s, want u_1", id)
	}
	if id := g.New(); id != "u_2" {
		t.Errorf("second ID = %s, want u_2", id)
	}
}
