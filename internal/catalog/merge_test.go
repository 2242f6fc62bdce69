package catalog

import (
	"reflect"
	"testing"

	"valvefinder/internal"
	"valvefinder/internal/util"
)

func TestMergeImagesEnrichedFromBackend(t *testing.T) {
	src := Sources{
		Images: []internal.ImageEntry{{ID: "152860", Ref: "152860", ImageURL: "a.jpg"}},
		Backend: []internal.BackendValve{{
			ID:       "152860",
			Location: internal.Locations{"Banco A"},
			Quantity: util.IntPtr(3),
		}},
	}
	got := Merge(src)
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	r := got[0]
	if r.ImageURL != "a.jpg" {
		t.Fatalf("image=%q", r.ImageURL)
	}
	if !reflect.DeepEqual([]string(r.Location), []string{"Banco A"}) {
		t.Fatalf("location=%v", r.Location)
	}
	if r.Quantity == nil || *r.Quantity != 3 {
		t.Fatalf("quantity=%v", r.Quantity)
	}
	if r.ID != "152860" || r.Ref != "152860" {
		t.Fatalf("keys changed: %q %q", r.ID, r.Ref)
	}
}

func TestMergeImageMatchedByBackendAltKey(t *testing.T) {
	src := Sources{
		Images: []internal.ImageEntry{{ID: "SN-1", ImageURL: "sn.jpg"}},
		Backend: []internal.BackendValve{{
			ID:           "7",
			Valve:        util.StringPtr("Válvula de bola"),
			SerialNumber: util.StringPtr("SN-1"),
		}},
	}
	got := Merge(src)
	if len(got) != 1 || got[0].Name != "Válvula de bola" || got[0].SerialNumber != "SN-1" {
		t.Fatalf("got %+v", got)
	}
	if got[0].ID != "SN-1" {
		t.Fatalf("id=%q", got[0].ID)
	}
}

func TestMergeBackendOnly(t *testing.T) {
	src := Sources{
		Backend: []internal.BackendValve{
			{ID: "1", Valve: util.StringPtr("Compuerta"), SerialNumber: util.StringPtr("SN-1"), Bank: util.StringPtr("b")},
			{ID: "2"},
		},
	}
	got := Merge(src)
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].Ref != "SN-1" || got[0].Name != "Compuerta" || got[0].Bank != "B" {
		t.Fatalf("got %+v", got[0])
	}
	if got[1].Ref != "2" || got[1].Name != "2" {
		t.Fatalf("got %+v", got[1])
	}
}

func TestMergeMetadataPassesThrough(t *testing.T) {
	meta := []internal.ValveRecord{
		{ID: "v1", Name: "Uno", Location: internal.Locations{"Banco A"}},
		{ID: "v2", Name: "Dos", Ref: "R2"},
		{ID: "v3", Name: "Tres", Quantity: util.IntPtr(2)},
		{ID: "v4", Name: "Cuatro", Notes: "x"},
		{ID: "v5", Name: "Cinco", Bank: "D"},
	}
	got := Merge(Sources{Metadata: meta})
	if !reflect.DeepEqual(got, meta) {
		t.Fatalf("got %+v", got)
	}
}

func TestMergeFallbackPlaceholders(t *testing.T) {
	got := Merge(Sources{Files: []string{"img/valvula_bola.jpg", "img\\valvula_bola.png", "Compuerta 2.jpg", ".jpg"}})
	if len(got) != 3 {
		t.Fatalf("len=%d", len(got))
	}
	want := []string{"valvula_bola", "valvula_bola-1", "compuerta-2"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("ids=%v", ids(got))
	}
	first := got[0]
	if first.Name != "Válvula bola" || first.Kind != PlaceholderKind || first.Notes != PlaceholderNotes {
		t.Fatalf("got %+v", first)
	}
	if first.ImageURL != "img/valvula_bola.jpg" {
		t.Fatalf("image=%q", first.ImageURL)
	}
}

func TestMergeEmpty(t *testing.T) {
	if got := Merge(Sources{}); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestMergeDeterministic(t *testing.T) {
	src := Sources{
		Images:  []internal.ImageEntry{{ID: "a"}, {ID: "b"}, {ID: "a", ImageURL: "a2.jpg"}},
		Backend: []internal.BackendValve{{ID: "b", Quantity: util.IntPtr(1)}},
		BankOverrides: map[string]internal.BankOverride{
			"a": {Bank: "c"},
		},
	}
	first := Merge(src)
	for i := 0; i < 5; i++ {
		if again := Merge(src); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs", i)
		}
	}
	if !reflect.DeepEqual(ids(first), []string{"a", "b"}) {
		t.Fatalf("ids=%v", ids(first))
	}
	if first[0].ImageURL != "a2.jpg" || first[0].Bank != "C" {
		t.Fatalf("got %+v", first[0])
	}
}

func TestMergeDetailPrecedence(t *testing.T) {
	base := internal.ValveRecord{
		ID: "1", Ref: "R1", Name: "Base", ImageURL: "base.jpg",
		Location: internal.Locations{"Banco B"}, Notes: "keep",
	}
	b := internal.BackendValve{
		ID:        "99",
		Name:      util.StringPtr("Nombre"),
		Valve:     util.StringPtr("Valvula"),
		Location:  internal.Locations{"Banco A"},
		Bank:      util.StringPtr("a"),
		SymbolURL: util.StringPtr("sym.png"),
	}
	got := MergeDetail(base, b)
	if got.ID != "1" || got.Ref != "R1" {
		t.Fatalf("keys changed: %+v", got)
	}
	if got.ImageURL != "base.jpg" || got.SymbolURL != "sym.png" {
		t.Fatalf("images: %+v", got)
	}
	if got.Name != "Valvula" || got.Bank != "A" || got.Notes != "keep" {
		t.Fatalf("got %+v", got)
	}
	if !reflect.DeepEqual([]string(got.Location), []string{"Banco A"}) {
		t.Fatalf("location=%v", got.Location)
	}

	noImage := MergeDetail(internal.ValveRecord{ID: "1", Name: "x"}, internal.BackendValve{ID: "1", SymbolURL: util.StringPtr("sym.png")})
	if noImage.ImageURL != "sym.png" {
		t.Fatalf("image=%q", noImage.ImageURL)
	}

	if base.Location[0] != "Banco B" {
		t.Fatalf("base mutated")
	}
}

func TestApplyBankOverrides(t *testing.T) {
	records := []internal.ValveRecord{
		{ID: "1", Ref: "152860", Name: "a"},
		{ID: "2", Name: "b"},
	}
	overrides := map[string]internal.BankOverride{
		"152860": {Bank: "d", Location: internal.Locations{"Banco D"}},
		"2":      {Bank: "B"},
	}
	got := ApplyBankOverrides(records, overrides)
	if got[0].Bank != "D" || got[0].Location.String() != "Banco D" || got[1].Bank != "B" {
		t.Fatalf("got %+v", got)
	}
	if records[0].Bank != "" {
		t.Fatalf("input mutated")
	}
}

func TestMergeKeepsBanksInVocabulary(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{"letter", "c", "C"},
		{"phrase", "banco a", "A"},
		{"unknown tag", "Z", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			detail := MergeDetail(internal.ValveRecord{ID: "1", Name: "Bola"}, internal.BackendValve{ID: "1", Bank: util.StringPtr(tc.value)})
			if detail.Bank != tc.want {
				t.Fatalf("MergeDetail bank=%q want %q", detail.Bank, tc.want)
			}

			backend := Merge(Sources{Backend: []internal.BackendValve{{ID: "2", Bank: util.StringPtr(tc.value)}}})
			if len(backend) != 1 || backend[0].Bank != tc.want {
				t.Fatalf("backend merge: %+v", backend)
			}

			metadata := Merge(Sources{Metadata: []internal.ValveRecord{{ID: "3", Name: "Tres", Bank: tc.value}}})
			if len(metadata) != 1 || metadata[0].Bank != tc.want {
				t.Fatalf("metadata merge: %+v", metadata)
			}

			overridden := ApplyBankOverrides(
				[]internal.ValveRecord{{ID: "4", Name: "Cuatro"}},
				map[string]internal.BankOverride{"4": {Bank: tc.value}},
			)
			if overridden[0].Bank != tc.want {
				t.Fatalf("override bank=%q want %q", overridden[0].Bank, tc.want)
			}
		})
	}
}

func TestMergeInvalidDetailBankKeepsBase(t *testing.T) {
	got := MergeDetail(internal.ValveRecord{ID: "1", Bank: "B"}, internal.BackendValve{ID: "1", Bank: util.StringPtr("NORTE")})
	if got.Bank != "B" {
		t.Fatalf("bank=%q", got.Bank)
	}
}
