package studycode

import (
	"strings"
	"testing"
)

func TestGenerateLength(t *testing.T) {
	for _, n := range []int{1, StudyCodeLength, InviteCodeLength, 32} {
		code, err := Generate(n)
		if err != nil {
			t.Fatalf("generate %d: %v", n, err)
		}
		if len(code) != n {
			t.Errorf("len = %d, want %d", len(code), n)
		}
	}
}

func TestGenerateAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := Generate(StudyCodeLength)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		for _, c := range code {
			if !strings.ContainsRune(Alphabet, c) {
				t.Fatalf("code %q contains %q outside alphabet", code, c)
			}
		}
	}
}

func TestGenerateCoversAlphabet(t *testing.T) {
	// With 32 characters the rejection limit is a full 256, so every random
	// byte maps to a character and all of them must show up over enough
	// draws. A miscomputed limit would reject bytes or skew the mapping.
	if 256%len(Alphabet) != 0 {
		t.Fatalf("alphabet length %d does not divide 256", len(Alphabet))
	}

	seen := make(map[rune]struct{})
	for i := 0; i < 200; i++ {
		code, err := Generate(InviteCodeLength)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		for _, c := range code {
			seen[c] = struct{}{}
		}
	}
	// 1600 uniform draws over 32 characters miss one with probability ~1e-22.
	if len(seen) != len(Alphabet) {
		t.Errorf("saw %d distinct characters, want %d", len(seen), len(Alphabet))
	}
}

func TestGenerateVaries(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := Generate(InviteCodeLength)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		seen[code] = struct{}{}
	}
	// 32^8 possibilities; 100 draws colliding would mean a broken generator.
	if len(seen) != 100 {
		t.Errorf("got %d distinct codes out of 100", len(seen))
	}
}
