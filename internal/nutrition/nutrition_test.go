package nutrition

import (
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	db := Default()
	if db.Len() != 15 {
		t.Fatalf("Len() = %d, want 15", db.Len())
	}

	want := []string{"apple", "banana", "orange", "rice", "chapati", "dal", "paneer",
		"milk", "egg", "almond", "salad", "pizza", "burger", "fries", "soda"}
	for i, food := range db.Foods() {
		if food.Name != want[i] {
			t.Errorf("Foods()[%d] = %q, want %q", i, food.Name, want[i])
		}
		if food.Notes == "" {
			t.Errorf("%s has no notes", food.Name)
		}
	}

	dal, ok := db.Lookup(" DAL ")
	if !ok {
		t.Fatal("Lookup(dal) not found")
	}
	if dal.Calories != 180 || dal.Protein != 9 || dal.Fiber != 7 {
		t.Errorf("unexpected dal values: %+v", dal)
	}
	if _, ok := db.Lookup("tofu"); ok {
		t.Error("Lookup(tofu) should miss")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"invalid yaml": "foods: [",
		"empty":        "foods: []",
		"no name":      "foods:\n  - calories: 1\n",
		"duplicate":    "foods:\n  - name: tea\n  - name: Tea\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	type found struct {
		name     string
		quantity int
	}
	tests := []struct {
		text string
		want []found
	}{
		{"I ate 2 chapatis and 1 dal", []found{{"chapati", 2}, {"dal", 1}}},
		{"An apple", []found{{"apple", 1}}},
		{"12APPLES!", []found{{"apple", 12}}},
		{"3 eggs, 10 almonds and a soda", []found{{"egg", 3}, {"almond", 10}, {"soda", 1}}},
		{"pizza, burger and fries", []found{{"pizza", 1}, {"burger", 1}, {"fries", 1}}},
		{"10 pineapples", []found{{"apple", 1}}},
		{"٢ apples", []found{{"apple", 2}}},
		{"१२ almonds", []found{{"almond", 12}}},
		{"3\u00a0eggs", []found{{"egg", 3}}},
		{"nothing known here", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			items := Analyze(tt.text)
			if len(items) != len(tt.want) {
				t.Fatalf("Analyze(%q) found %d items, want %d: %+v", tt.text, len(items), len(tt.want), items)
			}
			for i, item := range items {
				if item.Food.Name != tt.want[i].name || item.Quantity != tt.want[i].quantity {
					t.Errorf("item %d = %s x%d, want %s x%d",
						i, item.Food.Name, item.Quantity, tt.want[i].name, tt.want[i].quantity)
				}
			}
		})
	}
}

func TestAnalyze_HugeQuantityFallsBackToOne(t *testing.T) {
	items := Analyze("99999999999999999999999 bananas")
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestSummary(t *testing.T) {
	got := Summary(Analyze("I ate 2 chapatis and 1 dal"))

	want := "Nutrition breakdown:\n" +
		"2 x chapati: ~240 kcal (protein: 7.0 g, carbs: 36.0 g, fat: 7.4 g, fiber: 4.0 g)\n" +
		"1 x dal: ~180 kcal (protein: 9.0 g, carbs: 26.0 g, fat: 3.0 g, fiber: 7.0 g)\n" +
		"\n" +
		"\nTotal approximate values:\n" +
		"- Calories: 420 kcal\n" +
		"- Protein: 16.0 g\n" +
		"- Carbohydrates: 62.0 g\n" +
		"- Fat: 10.4 g\n" +
		"- Fiber: 11.0 g\n"

	if got != want {
		t.Errorf("Summary mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestSummary_NoFoods(t *testing.T) {
	if got := Summary(nil); got != NoFoodsDetected {
		t.Errorf("Summary(nil) = %q", got)
	}
}

func TestSummary_RoundsCaloriesHalfToEven(t *testing.T) {
	db, err := Parse([]byte("foods:\n  - name: crumb\n    calories: 2.5\n  - name: seed\n    calories: 3.5\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got := Summary(db.Analyze("crumb"))
	if !strings.Contains(got, "1 x crumb: ~2 kcal") {
		t.Errorf("2.5 kcal should round to 2: %q", got)
	}

	got = Summary(db.Analyze("seed"))
	if !strings.Contains(got, "1 x seed: ~4 kcal") {
		t.Errorf("3.5 kcal should round to 4: %q", got)
	}
}

func TestTotal(t *testing.T) {
	totals := Total(Analyze("3 almonds and 1 milk"))
	if totals.Calories != 7*3+103 {
		t.Errorf("Calories = %v", totals.Calories)
	}
	if totals.Fiber < 0.89 || totals.Fiber > 0.91 {
		t.Errorf("Fiber = %v", totals.Fiber)
	}
}
