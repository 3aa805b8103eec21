package doko_test

import (
	"testing"

	"github.com/xtding233/doko-backend/internal/doko"
)

func TestFormatterPoints(t *testing.T) {
	de := doko.NewFormatter("de")
	en := doko.NewFormatter("en")
	tests := []struct {
		f    doko.Formatter
		in   string
		want string
	}{
		{de, "0.5", "0,5"},
		{de, "-1.5", "-1,5"},
		{de, "2", "2,0"},
		{de, "0", "0,0"},
		{de, "1234.5", "1234,5"},
		{de, "-20480", "-20480,0"},
		{en, "0.5", "0.5"},
		{en, "1000", "1000.0"},
		{en, "-0.25", "-0.3"},
	}
	for _, tt := range tests {
		if got := tt.f.Points(dec(tt.in)); got != tt.want {
			t.Errorf("Points(%s) [%s] = %q, want %q", tt.in, tt.f.Tag(), got, tt.want)
		}
	}
	if got := de.Signed(dec("1.5")); got != "+1,5" {
		t.Errorf("Signed = %q, want +1,5", got)
	}
}

func TestFormatterUnknownLocaleFallsBackToGerman(t *testing.T) {
	if got := doko.NewFormatter("??").Points(dec("0.5")); got != "0,5" {
		t.Fatalf("Points = %q, want 0,5", got)
	}
}

func TestSummary(t *testing.T) {
	rs := doko.Canonical()
	v := doko.ParseValues("10/20", "50")
	names := map[string]string{"p1": "Anna", "p2": "Ben", "p3": "Cem", "p4": "Dora"}
	f := doko.NewFormatter("de")

	solo := mustDeclare(t, rs, []doko.Option{doko.OptionSolo}, soloWin("p1"))
	r, q := doko.Play(rs, v, doko.Queue{}, table, solo)
	want := "Gewinner (Anna): +1,5\nVerlierer: -0,5 p.P."
	if got := f.Summary(r, names); got != want {
		t.Fatalf("solo summary = %q, want %q", got, want)
	}

	team := mustDeclare(t, rs, []doko.Option{doko.OptionWin}, teamWin())
	r, _ = doko.Play(rs, v, q, table, team)
	want = "Wert: 0,2\nGewinner: Anna, Ben\nVerlierer: Cem, Dora\n(Bockrunde x2)"
	if got := f.Summary(r, names); got != want {
		t.Fatalf("team summary = %q, want %q", got, want)
	}

	lost := map[string]doko.Status{"p1": doko.StatusLost, "p2": doko.StatusWon, "p3": doko.StatusWon, "p4": doko.StatusWon}
	sl := mustDeclare(t, rs, []doko.Option{doko.OptionSolo, doko.OptionSoloLost}, lost)
	r, _ = doko.Play(rs, v, doko.Queue{}, table, sl)
	want = "Verlierer (Anna): -3,0\nGewinner: +1,0 p.P."
	if got := f.Summary(r, names); got != want {
		t.Fatalf("solo lost summary = %q, want %q", got, want)
	}
}
