package nutrition

import (
	"fmt"
	"math"
	"strings"
)

// NoFoodsDetected is the summary for a meal with no known food
const NoFoodsDetected = "I could not detect any known foods from the text."

// Totals sums the nutrients of a meal
type Totals struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
	Fiber    float64
}

// Add accumulates item scaled by its quantity
func (t *Totals) Add(item Item) {
	q := float64(item.Quantity)
	t.Calories += item.Food.Calories * q
	t.Protein += item.Food.Protein * q
	t.Carbs += item.Food.Carbs * q
	t.Fat += item.Food.Fat * q
	t.Fiber += item.Food.Fiber * q
}

// Total returns the combined nutrients of items
func Total(items []Item) Totals {
	var t Totals
	for _, item := range items {
		t.Add(item)
	}
	return t
}

// roundCalories rounds half to even
func roundCalories(v float64) int64 {
	return int64(math.RoundToEven(v))
}

// Line formats one item of the breakdown
func Line(item Item) string {
	var t Totals
	t.Add(item)
	return fmt.Sprintf("%d x %s: ~%d kcal (protein: %.1f g, carbs: %.1f g, fat: %.1f g, fiber: %.1f g)",
		item.Quantity, item.Food.Name, roundCalories(t.Calories), t.Protein, t.Carbs, t.Fat, t.Fiber)
}

// Summary builds the human-readable breakdown of items
func Summary(items []Item) string {
	if len(items) == 0 {
		return NoFoodsDetected
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line(item))
	}
	t := Total(items)

	var b strings.Builder
	b.WriteString("Nutrition breakdown:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	b.WriteString("\nTotal approximate values:\n")
	fmt.Fprintf(&b, "- Calories: %d kcal\n", roundCalories(t.Calories))
	fmt.Fprintf(&b, "- Protein: %.1f g\n", t.Protein)
	fmt.Fprintf(&b, "- Carbohydrates: %.1f g\n", t.Carbs)
	fmt.Fprintf(&b, "- Fat: %.1f g\n", t.Fat)
	fmt.Fprintf(&b, "- Fiber: %.1f g\n", t.Fiber)
	return b.String()
}
