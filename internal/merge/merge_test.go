package merge

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

func pt(source string, g model.Granularity, date time.Time, price string) model.PricePoint {
	return model.PricePoint{
		Date:        date,
		Price:       decimal.RequireFromString(price),
		Currency:    "USD",
		Granularity: g,
		Source:      source,
	}
}

func series(source string, g model.Granularity, points ...model.PricePoint) model.SourceSeries {
	return model.SourceSeries{Source: source, Granularity: g, Points: points}
}

func TestMerge_GranularityPrecedence(t *testing.T) {
	d1718 := model.NewDate(1718, 1, 1)
	d1719 := model.NewDate(1719, 1, 1)
	d1960 := model.NewDate(1960, 1, 1)

	annual := series("measuringworth_london", model.GranularityAnnual,
		pt("measuringworth_london", model.GranularityAnnual, d1718, "3.80"),
		pt("measuringworth_london", model.GranularityAnnual, d1719, "3.81"),
	)
	monthly := series("worldbank", model.GranularityMonthly,
		pt("worldbank", model.GranularityMonthly, d1960, "35.00"),
	)
	daily := series("yahoo_finance", model.GranularityDaily,
		pt("yahoo_finance", model.GranularityDaily, d1960, "35.20"),
	)

	out, err := Merge([]model.SourceSeries{annual, monthly, daily}, DefaultPolicy())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if out.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", out.Len())
	}
	got := out.Points()
	if !got[0].Date.Equal(d1718) || got[0].Price.String() != "3.8" {
		t.Errorf("point 0: %+v", got[0])
	}
	if !got[1].Date.Equal(d1719) || got[1].Price.String() != "3.81" {
		t.Errorf("point 1: %+v", got[1])
	}
	// Daily beats monthly on the shared 1960-01-01 date.
	if got[2].Source != "yahoo_finance" || got[2].Price.String() != "35.2" {
		t.Errorf("point 2: expected daily yahoo_finance value, got %+v", got[2])
	}
}

func TestMerge_EmptyInput(t *testing.T) {
	out, err := Merge(nil, DefaultPolicy())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected empty series, got %d points", out.Len())
	}
}

func TestMerge_UnionCoverage(t *testing.T) {
	a := series("a", model.GranularityAnnual,
		pt("a", model.GranularityAnnual, model.NewDate(1800, 1, 1), "19.39"),
		pt("a", model.GranularityAnnual, model.NewDate(1801, 1, 1), "19.39"),
	)
	b := series("b", model.GranularityMonthly,
		pt("b", model.GranularityMonthly, model.NewDate(1801, 1, 1), "19.40"),
		pt("b", model.GranularityMonthly, model.NewDate(1801, 2, 1), "19.41"),
	)

	out, err := Merge([]model.SourceSeries{a, b}, DefaultPolicy())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	want := []time.Time{
		model.NewDate(1800, 1, 1),
		model.NewDate(1801, 1, 1),
		model.NewDate(1801, 2, 1),
	}
	if out.Len() != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), out.Len())
	}
	for i, p := range out.Points() {
		if !p.Date.Equal(want[i]) {
			t.Errorf("date %d: expected %s, got %s", i, want[i], p.Date)
		}
	}
	// No date covered only by the annual series is dropped.
	if p, ok := out.At(model.NewDate(1800, 1, 1)); !ok || p.Source != "a" {
		t.Errorf("expected annual fallback for 1800-01-01, got %+v", p)
	}
	// The monthly point wins the overlap.
	if p, _ := out.At(model.NewDate(1801, 1, 1)); p.Source != "b" {
		t.Errorf("expected monthly point for 1801-01-01, got %+v", p)
	}
}

func TestMerge_NoDuplicateDates(t *testing.T) {
	d := model.NewDate(2025, 3, 14)
	a := series("a", model.GranularityDaily, pt("a", model.GranularityDaily, d, "2900"))
	b := series("b", model.GranularityDaily, pt("b", model.GranularityDaily, d, "2901"))
	c := series("c", model.GranularityMonthly, pt("c", model.GranularityMonthly, d, "2890"))

	out, err := Merge([]model.SourceSeries{a, b, c}, DefaultPolicy())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("expected 1 point, got %d", out.Len())
	}
}

func TestMerge_TieBreakPrefersEarlierSeries(t *testing.T) {
	d := model.NewDate(2025, 3, 14)
	a := series("a", model.GranularityDaily, pt("a", model.GranularityDaily, d, "2900"))
	b := series("b", model.GranularityDaily, pt("b", model.GranularityDaily, d, "2901"))

	// Neither source is listed in the policy, so ranks tie exactly.
	out, err := Merge([]model.SourceSeries{a, b}, DefaultPolicy())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if p, _ := out.At(d); p.Source != "a" {
		t.Errorf("expected earlier-listed series to win the tie, got %q", p.Source)
	}

	// Swapping the input order flips the winner.
	out, err = Merge([]model.SourceSeries{b, a}, DefaultPolicy())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if p, _ := out.At(d); p.Source != "b" {
		t.Errorf("expected earlier-listed series to win the tie, got %q", p.Source)
	}
}

func TestMerge_ExplicitSourceOrderBreaksTierTies(t *testing.T) {
	d := model.NewDate(2025, 3, 14)
	a := series("a", model.GranularityDaily, pt("a", model.GranularityDaily, d, "2900"))
	b := series("b", model.GranularityDaily, pt("b", model.GranularityDaily, d, "2901"))

	policy := DefaultPolicy()
	policy.Sources = []string{"b", "a"}

	// b is listed later in the input but earlier in the policy.
	out, err := Merge([]model.SourceSeries{a, b}, policy)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if p, _ := out.At(d); p.Source != "b" {
		t.Errorf("expected policy-preferred source to win, got %q", p.Source)
	}
}

func TestMerge_SameSourceDuplicateKeepsLast(t *testing.T) {
	d := model.NewDate(2025, 3, 14)
	s := series("a", model.GranularityDaily,
		pt("a", model.GranularityDaily, d, "2900"),
		pt("a", model.GranularityDaily, d, "2910"),
	)

	out, err := Merge([]model.SourceSeries{s}, DefaultPolicy())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if p, _ := out.At(d); p.Price.String() != "2910" {
		t.Errorf("expected last duplicate to win, got %s", p.Price)
	}
}

func TestMerge_NonUSDCurrencyFails(t *testing.T) {
	p := pt("measuringworth_british", model.GranularityAnnual, model.NewDate(1300, 1, 1), "0.85")
	p.Currency = "GBP"
	s := model.SourceSeries{Source: "measuringworth_british", Granularity: model.GranularityAnnual, Points: []model.PricePoint{p}}

	_, err := Merge([]model.SourceSeries{s}, DefaultPolicy())
	if !errors.Is(err, ErrCurrencyNotNormalized) {
		t.Fatalf("expected ErrCurrencyNotNormalized, got %v", err)
	}
}

func TestMerge_NonPositivePricePassesThrough(t *testing.T) {
	d := model.NewDate(1943, 1, 1)
	s := series("a", model.GranularityAnnual, pt("a", model.GranularityAnnual, d, "0"))

	out, err := Merge([]model.SourceSeries{s}, DefaultPolicy())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if p, ok := out.At(d); !ok || !p.Price.IsZero() {
		t.Errorf("expected zero price to be merged unchanged, got %+v", p)
	}
}

func TestMerge_Idempotence(t *testing.T) {
	s := series("a", model.GranularityDaily,
		pt("a", model.GranularityDaily, model.NewDate(2025, 1, 2), "2640.50"),
		pt("a", model.GranularityDaily, model.NewDate(2025, 1, 3), "2655.10"),
		pt("a", model.GranularityDaily, model.NewDate(2025, 1, 6), "2642.00"),
	)

	out, err := Merge([]model.SourceSeries{s}, DefaultPolicy())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if out.Len() != len(s.Points) {
		t.Fatalf("expected %d points, got %d", len(s.Points), out.Len())
	}
	for i, p := range out.Points() {
		if !p.Date.Equal(s.Points[i].Date) || !p.Price.Equal(s.Points[i].Price) {
			t.Errorf("point %d changed: %+v vs %+v", i, p, s.Points[i])
		}
	}
}

func TestMerge_Determinism(t *testing.T) {
	input := []model.SourceSeries{
		series("measuringworth_london", model.GranularityAnnual,
			pt("measuringworth_london", model.GranularityAnnual, model.NewDate(1950, 1, 1), "34.72"),
			pt("measuringworth_london", model.GranularityAnnual, model.NewDate(1960, 1, 1), "35.27"),
		),
		series("worldbank", model.GranularityMonthly,
			pt("worldbank", model.GranularityMonthly, model.NewDate(1960, 1, 1), "35.27"),
			pt("worldbank", model.GranularityMonthly, model.NewDate(1960, 2, 1), "35.27"),
		),
	}

	first, err := Merge(input, DefaultPolicy())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Merge(input, DefaultPolicy())
		if err != nil {
			t.Fatalf("merge: %v", err)
		}
		if again.Len() != first.Len() {
			t.Fatalf("run %d: length changed", i)
		}
		for j, p := range again.Points() {
			q := first.Points()[j]
			if !p.Date.Equal(q.Date) || !p.Price.Equal(q.Price) || p.Source != q.Source {
				t.Fatalf("run %d: point %d differs: %+v vs %+v", i, j, p, q)
			}
		}
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	d := model.NewDate(2025, 3, 14)
	a := series("a", model.GranularityAnnual, pt("a", model.GranularityAnnual, d, "2900"))
	b := series("b", model.GranularityDaily, pt("b", model.GranularityDaily, d, "2901"))
	input := []model.SourceSeries{a, b}

	if _, err := Merge(input, DefaultPolicy()); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if input[0].Points[0].Price.String() != "2900" || input[0].Points[0].Source != "a" {
		t.Errorf("input series mutated: %+v", input[0].Points[0])
	}
	if len(input[0].Points) != 1 || len(input[1].Points) != 1 {
		t.Errorf("input series lengths changed")
	}
}

func TestPolicy_Rank(t *testing.T) {
	policy := Policy{
		PriorityOrder: []model.Granularity{model.GranularityDaily, model.GranularityMonthly, model.GranularityAnnual},
		Sources:       []string{"yahoo_finance", "worldbank"},
	}

	tests := []struct {
		name       string
		g          model.Granularity
		source     string
		wantTier   int
		wantSource int
	}{
		{"daily listed source", model.GranularityDaily, "yahoo_finance", 0, 0},
		{"monthly second source", model.GranularityMonthly, "worldbank", 1, 1},
		{"annual unlisted source", model.GranularityAnnual, "measuringworth_london", 2, 2},
		{"unknown granularity ranks last", "weekly", "worldbank", 3, 1},
	}
	for _, tt := range tests {
		p := model.PricePoint{Granularity: tt.g, Source: tt.source}
		tier, source := policy.Rank(p)
		if tier != tt.wantTier || source != tt.wantSource {
			t.Errorf("%s: rank = (%d,%d), want (%d,%d)", tt.name, tier, source, tt.wantTier, tt.wantSource)
		}
	}
}
