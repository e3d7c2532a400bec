package recipe

import (
	"fmt"
	"strconv"
	"strings"
)

// Flat text layout. Field order is fixed: title, metadata block, ingredients,
// instructions. ParseText is the exact inverse of RenderText.

const (
	titlePrefix      = "### Recipe: "
	ingredientsHead  = "Ingredients:"
	instructionsHead = "Instructions:"

	maxFilenameLen = 64
)

// metadata labels in render order.
var metaLabels = []string{
	"Prep time (minutes)",
	"Cook time (minutes)",
	"Total time (minutes)",
	"Servings",
	"Calories per serving",
	"Protein per serving (g)",
	"Carbs per serving (g)",
	"Fat per serving (g)",
	"Price per serving",
}

func fnum(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// flatten collapses whitespace runs, newlines included, to single spaces so a
// field always occupies exactly one line of the layout. Model responses
// sometimes carry embedded line breaks inside an ingredient or step.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RenderText serializes a record into the flat text layout delivered by the
// file sink. Fields are flattened to single lines so ParseText can always
// read the output back.
func RenderText(r *Record) []byte {
	var b strings.Builder
	b.WriteString(titlePrefix + flatten(r.Title) + "\n\n")
	values := []string{
		strconv.Itoa(r.Meta.PrepTimeMinutes),
		strconv.Itoa(r.Meta.CookTimeMinutes),
		strconv.Itoa(r.Meta.TotalTimeMinutes),
		strconv.Itoa(r.Meta.Servings),
		fnum(r.Meta.CaloriesPerServing),
		fnum(r.Meta.ProteinPerServing),
		fnum(r.Meta.CarbsPerServing),
		fnum(r.Meta.FatPerServing),
		fnum(r.Meta.PricePerServing),
	}
	for i, label := range metaLabels {
		b.WriteString(label + ": " + values[i] + "\n")
	}
	b.WriteString("\n" + ingredientsHead + "\n")
	for _, ing := range r.Ingredients {
		b.WriteString("- " + flatten(ing) + "\n")
	}
	b.WriteString("\n" + instructionsHead + "\n")
	for i, step := range r.Instructions {
		b.WriteString(strconv.Itoa(i+1) + ". " + flatten(step) + "\n")
	}
	return []byte(b.String())
}

// ParseText parses a flat text rendering back into a record. It exists so the
// rendering stays a lossless, fixed-order format rather than drifting into
// free-form prose.
func ParseText(data []byte) (*Record, error) {
	lines := strings.Split(string(data), "\n")
	rec := &Record{}
	i := 0
	next := func() (string, bool) {
		if i >= len(lines) {
			return "", false
		}
		l := lines[i]
		i++
		return l, true
	}

	line, ok := next()
	if !ok || !strings.HasPrefix(line, titlePrefix) {
		return nil, fmt.Errorf("missing title line")
	}
	rec.Title = strings.TrimPrefix(line, titlePrefix)

	// metadata block, preceded by a blank line
	if line, ok = next(); !ok || line != "" {
		return nil, fmt.Errorf("expected blank line after title")
	}
	metaValues := make([]string, 0, len(metaLabels))
	for _, label := range metaLabels {
		line, ok = next()
		if !ok || !strings.HasPrefix(line, label+": ") {
			return nil, fmt.Errorf("missing metadata field %q", label)
		}
		metaValues = append(metaValues, strings.TrimPrefix(line, label+": "))
	}
	ints := make([]int, 4)
	for j := 0; j < 4; j++ {
		n, err := strconv.Atoi(metaValues[j])
		if err != nil {
			return nil, fmt.Errorf("metadata field %q: %w", metaLabels[j], err)
		}
		ints[j] = n
	}
	floats := make([]float64, 5)
	for j := 0; j < 5; j++ {
		f, err := strconv.ParseFloat(metaValues[4+j], 64)
		if err != nil {
			return nil, fmt.Errorf("metadata field %q: %w", metaLabels[4+j], err)
		}
		floats[j] = f
	}
	rec.Meta = Metadata{
		PrepTimeMinutes:    ints[0],
		CookTimeMinutes:    ints[1],
		TotalTimeMinutes:   ints[2],
		Servings:           ints[3],
		CaloriesPerServing: floats[0],
		ProteinPerServing:  floats[1],
		CarbsPerServing:    floats[2],
		FatPerServing:      floats[3],
		PricePerServing:    floats[4],
	}

	if line, ok = next(); !ok || line != "" {
		return nil, fmt.Errorf("expected blank line after metadata")
	}
	if line, ok = next(); !ok || line != ingredientsHead {
		return nil, fmt.Errorf("missing ingredients header")
	}
	for {
		line, ok = next()
		if !ok {
			return nil, fmt.Errorf("unterminated ingredients list")
		}
		if line == "" {
			break
		}
		if !strings.HasPrefix(line, "- ") {
			return nil, fmt.Errorf("malformed ingredient line %q", line)
		}
		rec.Ingredients = append(rec.Ingredients, strings.TrimPrefix(line, "- "))
	}
	if line, ok = next(); !ok || line != instructionsHead {
		return nil, fmt.Errorf("missing instructions header")
	}
	for {
		line, ok = next()
		if !ok || line == "" {
			break
		}
		idx := strings.Index(line, ". ")
		if idx < 1 {
			return nil, fmt.Errorf("malformed instruction line %q", line)
		}
		rec.Instructions = append(rec.Instructions, line[idx+2:])
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("parsed record invalid: %w", err)
	}
	return rec, nil
}

// Filename derives a file name from a recipe title: lowercased, runs of
// non-alphanumeric characters collapsed to a single underscore, length bounded,
// with a .txt extension. An empty slug falls back to "recipe".
func Filename(title string) string {
	var b strings.Builder
	lastUnderscore := true // suppress leading underscore
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		slug = "recipe"
	}
	if len(slug) > maxFilenameLen {
		slug = strings.Trim(slug[:maxFilenameLen], "_")
	}
	return slug + ".txt"
}
