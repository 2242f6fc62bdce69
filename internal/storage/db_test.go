package storage

import (
	"path/filepath"
	"testing"

	"valvefinder/internal"
	"valvefinder/internal/util"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "valves.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertAndList(t *testing.T) {
	db := openTemp(t)

	err := db.UpsertValves([]internal.BackendValve{
		{ID: "1", Valve: util.StringPtr("Bola"), Quantity: util.IntPtr(3), Location: internal.Locations{"Banco A", "rack 1"}, SerialNumber: util.StringPtr("SN-1")},
		{ID: "2", Valve: util.StringPtr("Compuerta")},
		{ID: " ", Valve: util.StringPtr("skipped")},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = db.UpsertValves([]internal.BackendValve{
		{ID: "1", Valve: util.StringPtr("Bola 2in"), Quantity: util.IntPtr(5), Location: internal.Locations{"Banco B"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	valves, err := db.ListValves()
	if err != nil {
		t.Fatal(err)
	}
	if len(valves) != 2 {
		t.Fatalf("len=%d", len(valves))
	}
	first := valves[0]
	if first.ID != "1" || *first.Valve != "Bola 2in" || *first.Quantity != 5 || first.Location.String() != "Banco B" || first.SerialNumber != nil {
		t.Fatalf("first=%+v", first)
	}
	if valves[1].Quantity != nil || len(valves[1].Location) != 0 {
		t.Fatalf("second=%+v", valves[1])
	}

	n, err := db.CountValves()
	if err != nil || n != 2 {
		t.Fatalf("count=%d err=%v", n, err)
	}
}

func TestReplaceValvesPrunes(t *testing.T) {
	db := openTemp(t)
	err := db.UpsertValves([]internal.BackendValve{
		{ID: "1", Valve: util.StringPtr("Bola")},
		{ID: "2", Valve: util.StringPtr("Compuerta")},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.ReplaceValves([]internal.BackendValve{{ID: "2", Valve: util.StringPtr("Compuerta 2in")}, {ID: "3"}}); err != nil {
		t.Fatal(err)
	}
	valves, err := db.ListValves()
	if err != nil {
		t.Fatal(err)
	}
	if len(valves) != 2 || valves[0].ID != "2" || *valves[0].Valve != "Compuerta 2in" || valves[1].ID != "3" {
		t.Fatalf("valves=%+v", valves)
	}
	if gone, _ := db.GetValve("1"); gone != nil {
		t.Fatalf("dropped valve still cached: %+v", gone)
	}
}

func TestGetValve(t *testing.T) {
	db := openTemp(t)
	if err := db.UpsertValves([]internal.BackendValve{{ID: "9", Name: util.StringPtr("Check")}}); err != nil {
		t.Fatal(err)
	}

	v, err := db.GetValve("9")
	if err != nil || v == nil || *v.Name != "Check" {
		t.Fatalf("got %+v err=%v", v, err)
	}
	missing, err := db.GetValve("nope")
	if err != nil || missing != nil {
		t.Fatalf("got %+v err=%v", missing, err)
	}
}

func TestSearchValves(t *testing.T) {
	db := openTemp(t)
	err := db.UpsertValves([]internal.BackendValve{
		{ID: "1", Valve: util.StringPtr("Válvula de BOLA"), Location: internal.Locations{"Banco A"}},
		{ID: "2", Valve: util.StringPtr("Compuerta"), SerialNumber: util.StringPtr("XB-77")},
		{ID: "3", Valve: util.StringPtr("Mariposa"), Location: internal.Locations{"Banco C"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		q     string
		limit int
		want  []string
	}{
		{q: "bola", want: []string{"1"}},
		{q: "banco", want: []string{"1", "3"}},
		{q: "xb-7", want: []string{"2"}},
		{q: "banco", limit: 1, want: []string{"1"}},
		{q: "", want: []string{"1", "2", "3"}},
		{q: "zzz", want: nil},
	}
	for _, tc := range cases {
		got, err := db.SearchValves(tc.q, tc.limit)
		if err != nil {
			t.Fatal(err)
		}
		var ids []string
		for _, v := range got {
			ids = append(ids, v.ID)
		}
		if len(ids) != len(tc.want) {
			t.Fatalf("q=%q got %v want %v", tc.q, ids, tc.want)
		}
		for i := range ids {
			if ids[i] != tc.want[i] {
				t.Fatalf("q=%q got %v want %v", tc.q, ids, tc.want)
			}
		}
	}
}

func TestScans(t *testing.T) {
	db := openTemp(t)
	if _, err := db.InsertScan("152860", "qr", util.StringPtr("152860")); err != nil {
		t.Fatal(err)
	}
	id, err := db.InsertScan("???", "barcode", nil)
	if err != nil {
		t.Fatal(err)
	}
	if id != 2 {
		t.Fatalf("id=%d", id)
	}

	scans, err := db.ListScans(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(scans) != 2 || scans[0].CodeText != "???" || scans[0].MatchedID != nil || *scans[1].MatchedID != "152860" {
		t.Fatalf("scans=%+v", scans)
	}
	if scans[0].CreatedAt == "" {
		t.Fatalf("missing createdAt")
	}

	one, err := db.ListScans(1)
	if err != nil || len(one) != 1 {
		t.Fatalf("got %+v err=%v", one, err)
	}
}

func TestMetadata(t *testing.T) {
	db := openTemp(t)
	v, err := db.GetMetadata("catalog.last_sync")
	if err != nil || v != nil {
		t.Fatalf("got %v err=%v", v, err)
	}
	if err := db.SetMetadata("catalog.last_sync", "a"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("catalog.last_sync", "b"); err != nil {
		t.Fatal(err)
	}
	v, err = db.GetMetadata("catalog.last_sync")
	if err != nil || v == nil || *v != "b" {
		t.Fatalf("got %v err=%v", v, err)
	}
}
