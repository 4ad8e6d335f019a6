package results

import (
	"errors"
	"testing"

	"wealth-planner/internal/model"
)

func result(final float64) *model.SimulationResult {
	return &model.SimulationResult{
		Timesteps:   []float64{0, 1, 2},
		Destitution: []float64{0, 0, 0.1},
		Real: model.MoneySeries{
			Mean:        []float64{100, 110, final},
			Percentiles: map[string][]float64{"5.0": {90, 95, 0}, "95.0": {110, 130, 150}},
			FinalMean:   final,
		},
		Nominal: model.MoneySeries{
			Mean:        []float64{100, 120, 140},
			Percentiles: map[string][]float64{"50": {100, 120, 140}},
		},
		DestitutionArea: 0.1,
	}
}

func TestStore_LaterGenerationWins(t *testing.T) {
	s := NewStore("", "")
	a, b := result(1), result(2)

	// A is dispatched first (gen 1), B second (gen 2); B completes first.
	if !s.Apply(2, b) {
		t.Fatal("B should apply")
	}
	if s.Apply(1, a) {
		t.Fatal("late A should be discarded")
	}
	got, gen := s.Result()
	if got != b || gen != 2 {
		t.Fatalf("showing gen %d, want B (gen 2)", gen)
	}
}

func TestStore_FailKeepsPriorResult(t *testing.T) {
	s := NewStore(model.MoneyReal, model.ScaleLinear)
	s.Apply(1, result(1))

	if !s.Fail(2, &model.TransportError{Code: "UNREACHABLE", Message: "down"}) {
		t.Fatal("newer failure should be recorded")
	}
	res, gen := s.Result()
	if res == nil || gen != 1 {
		t.Fatal("failure replaced the prior result")
	}
	var te *model.TransportError
	if !errors.As(s.Err(), &te) {
		t.Fatalf("Err = %v", s.Err())
	}
	if s.Fail(1, errors.New("old")) {
		t.Fatal("failure of an already shown generation should be ignored")
	}

	s.Apply(3, result(3))
	if s.Err() != nil {
		t.Fatalf("newer result should clear the error, got %v", s.Err())
	}
}

func TestStore_UpdatesEmitted(t *testing.T) {
	s := NewStore("", "")
	var kinds []string
	s.Updates().Subscribe(func(u Update) { kinds = append(kinds, u.Kind) })

	s.Apply(1, result(1))
	s.Apply(1, result(1))
	s.Fail(2, errors.New("x"))
	if err := s.SetDisplay(model.MoneyNominal, ""); err != nil {
		t.Fatal(err)
	}
	want := []string{"result", "error", "display"}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", kinds, want)
		}
	}
}

func TestStore_SetDisplayValidates(t *testing.T) {
	s := NewStore("", "")
	if err := s.SetDisplay("euros", ""); err == nil {
		t.Fatal("unknown money type accepted")
	}
	if err := s.SetDisplay("", "cubic"); err == nil {
		t.Fatal("unknown scale accepted")
	}
	mt, sc := s.Display()
	if mt != model.MoneyReal || sc != model.ScaleLinear {
		t.Fatalf("display = %s, %s", mt, sc)
	}
}

func TestStore_DisplayIsCaseInsensitive(t *testing.T) {
	s := NewStore("Nominal", "")
	if mt, _ := s.Display(); mt != model.MoneyNominal {
		t.Fatalf("initial money type = %q", mt)
	}

	s = NewStore("", "")
	s.Apply(1, &model.SimulationResult{
		Timesteps: []float64{0, 1},
		Real:      model.MoneySeries{Mean: []float64{1, 1}, Percentiles: map[string][]float64{"50": {1, 1}}},
		Nominal:   model.MoneySeries{Mean: []float64{2, 2}, Percentiles: map[string][]float64{"50": {2, 4}}},
	})
	if err := s.SetDisplay("Nominal", "LOG"); err != nil {
		t.Fatal(err)
	}
	mt, sc := s.Display()
	if mt != model.MoneyNominal || sc != model.ScaleLog {
		t.Fatalf("display = %q, %q", mt, sc)
	}
	v, _ := s.View(12)
	if v.MoneyType != model.MoneyNominal || v.Mean[0] != 2 {
		t.Fatalf("view = %s mean %v, want nominal [2 2]", v.MoneyType, v.Mean)
	}
	if v.YMin != 2 {
		t.Errorf("log floor = %v, want 2", v.YMin)
	}
}

func TestView(t *testing.T) {
	s := NewStore("", "")
	if v, ok := s.View(12); ok || v.MoneyType != model.MoneyReal {
		t.Fatalf("empty view = %+v, %v", v, ok)
	}

	s.Apply(1, result(5))
	v, ok := s.View(12)
	if !ok {
		t.Fatal("no view after apply")
	}
	if v.Steps[2] != 24 {
		t.Errorf("steps = %v", v.Steps)
	}
	if _, ok := v.Percentiles["5"]; !ok {
		t.Errorf("labels not canonical: %v", v.Labels)
	}
	if len(v.Labels) != 2 || v.Labels[0] != "5" || v.Labels[1] != "95" {
		t.Errorf("labels = %v", v.Labels)
	}
	if v.YMin != 0 || v.YMax < 157.4 || v.YMax > 157.6 {
		t.Errorf("linear range = [%v, %v]", v.YMin, v.YMax)
	}

	if err := s.SetDisplay(model.MoneyNominal, model.ScaleLog); err != nil {
		t.Fatal(err)
	}
	v, _ = s.View(12)
	if v.Mean[1] != 120 || v.Labels[0] != "50" {
		t.Errorf("nominal view = %+v", v)
	}
	if v.YMin != 100 {
		t.Errorf("log floor = %v, want 100", v.YMin)
	}
}
