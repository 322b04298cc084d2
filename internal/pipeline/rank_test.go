package pipeline

import (
	"reflect"
	"testing"

	"github.com/budgetlens/budgetlens/internal/model"
)

func TestTopNKeepsFiveByGrossActivity(t *testing.T) {
	a := NewActivity()
	a.Add("Rent", -1_500_000)
	a.Add("Grocer", -80_000)
	a.Add("Grocer", -20_000)
	a.Add("Refund", 300_000)
	a.Add("Cafe", -4_500)
	a.Add("Gym", -50_000)
	a.Add("Books", -12_000)

	slices, legend := a.TopN(DefaultTopN)

	wantNames := []string{"Rent", "Refund", "Grocer", "Gym", "Books"}
	if !reflect.DeepEqual(legend, wantNames) {
		t.Fatalf("legend = %v, want %v", legend, wantNames)
	}
	if len(slices) != 5 {
		t.Fatalf("len(slices) = %d, want 5", len(slices))
	}
	for i, s := range slices {
		if s.Payee != legend[i] {
			t.Fatalf("slice %d payee %s does not match legend %s", i, s.Payee, legend[i])
		}
	}
	if slices[2].Activity != 100 {
		t.Fatalf("Grocer activity = %.2f, want 100 (both visits summed)", slices[2].Activity)
	}
}

func TestRankingStableOnTies(t *testing.T) {
	build := func() []model.PieSlice {
		a := NewActivity()
		for _, name := range []string{"b", "a", "d", "c"} {
			a.Add(name, -1000)
		}
		slices, _ := a.TopN(3)
		return slices
	}

	first := build()
	for i := 0; i < 20; i++ {
		if got := build(); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d = %+v, want %+v", i, got, first)
		}
	}
	if first[0].Payee != "b" || first[1].Payee != "a" || first[2].Payee != "d" {
		t.Fatalf("ties = %+v, want first-seen order b, a, d", first)
	}
}

func TestPayeeActivityMergesByName(t *testing.T) {
	txns := []model.Transaction{
		{ID: "1", PayeeID: "p1", PayeeName: "Amazon", Amount: -10_000},
		{ID: "2", PayeeID: "p2", PayeeName: "Amazon", Amount: -5_000},
		{ID: "3", Amount: -1_000},
	}
	a, skipped := PayeeActivity(txns)
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v", skipped)
	}
	ranked := a.Ranking()
	if len(ranked) != 2 {
		t.Fatalf("ranked = %+v, want Amazon merged plus Unknown", ranked)
	}
	if ranked[0].Name != "Amazon" || Round2(ranked[0].Activity) != 15 {
		t.Fatalf("top = %+v", ranked[0])
	}
	if ranked[1].Name != UnknownPayeeName {
		t.Fatalf("fallback name = %s, want %s", ranked[1].Name, UnknownPayeeName)
	}
}

func TestTopNFewerThanN(t *testing.T) {
	a := NewActivity()
	a.Add("only", -1)
	slices, legend := a.TopN(5)
	if len(slices) != 1 || len(legend) != 1 {
		t.Fatalf("got %d slices / %d legend entries, want 1/1", len(slices), len(legend))
	}
}
