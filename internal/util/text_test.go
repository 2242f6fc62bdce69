package util

import (
	"reflect"
	"testing"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Valve 152860":   "valve-152860",
		"REF-9":          "ref-9",
		"a//b  c":        "a-b-c",
		"válvula_bola":   "v-lvula_bola",
		"already-a_slug": "already-a_slug",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Fatalf("Slug(%q)=%q want %q", in, got, want)
		}
	}
}

func TestFoldName(t *testing.T) {
	if FoldName("  Válvula de Bola ") != FoldName("valvula de bola") {
		t.Fatalf("accents not folded: %q", FoldName("Válvula de Bola"))
	}
}

func TestTitleFromFilename(t *testing.T) {
	cases := map[string]string{
		"valvula_bola-2": "Válvula bola 2",
		"check__valve":   "Check valve",
		"152860":         "152860",
		"":               "",
	}
	for in, want := range cases {
		if got := TitleFromFilename(in); got != want {
			t.Fatalf("TitleFromFilename(%q)=%q want %q", in, got, want)
		}
	}
}

func TestSplitLocation(t *testing.T) {
	got := SplitLocation("Banco B, Banco C / rack-2")
	want := []string{"Banco", "B", "Banco", "C", "rack", "2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFileBaseAndExt(t *testing.T) {
	if got := StripExt(FileBase(`card-photos\sub/152860.jpg`)); got != "152860" {
		t.Fatalf("got %q", got)
	}
}
