package reports

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const systemPrompt = `You are a report-writing assistant for police officers.
Turn the officer's narrative into a formal incident report for the named offense.
Use only facts stated by the officer. Never invent names, times, places, or values.
Respond with a single JSON object and nothing else:
{"fields": {"<field>": "<value>"}, "missing": ["<field>"], "report": "<full report text>"}
"fields" holds every required field you could fill from the narrative and follow-up answers.
"missing" lists required fields the officer has not supplied.`

const answersHeader = "\n\nAdditional details from the officer:"

// initialPrompt is the first user turn of a session. Follow-up answers are
// appended to it as "\n{name}: {value}" lines.
func initialPrompt(offense Offense, narrative string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Offense: %s (%s)\n", offense.Title, offense.Statute)
	fmt.Fprintf(&b, "Required fields: %s\n\n", strings.Join(offense.RequiredFields, ", "))
	b.WriteString("Narrative:\n")
	b.WriteString(strings.TrimSpace(narrative))
	b.WriteString(answersHeader)
	return b.String()
}

// appendFields adds answers to the prompt in name order and returns the
// names in the same order. Line breaks inside a value are flattened so each
// answer stays on one line.
func appendFields(prompt string, fields map[string]string) (string, []string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(prompt)
	for _, name := range names {
		fmt.Fprintf(&b, "\n%s: %s", name, oneLine(fields[name]))
	}
	return b.String(), names
}

func oneLine(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// promptAnswers recovers every answer appended to a session prompt. A field
// answered more than once keeps its latest value.
func promptAnswers(prompt string) map[string]string {
	answers := make(map[string]string)
	idx := strings.LastIndex(prompt, answersHeader)
	if idx < 0 {
		return answers
	}
	for _, line := range strings.Split(prompt[idx+len(answersHeader):], "\n") {
		name, value, ok := strings.Cut(line, ": ")
		if !ok || name == "" || strings.TrimSpace(value) == "" {
			continue
		}
		answers[name] = value
	}
	return answers
}

type completion struct {
	Fields  map[string]string
	Missing []string
	Report  string
}

// parseCompletion reads the model's JSON answer, tolerating markdown fences
// and leading or trailing prose.
func parseCompletion(text string) (completion, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return completion{}, ErrMalformedCompletion
	}

	var raw struct {
		Fields  map[string]any `json:"fields"`
		Missing []string       `json:"missing"`
		Report  string         `json:"report"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return completion{}, fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
	}

	out := completion{
		Fields:  make(map[string]string, len(raw.Fields)),
		Missing: raw.Missing,
		Report:  strings.TrimSpace(raw.Report),
	}
	for name, v := range raw.Fields {
		if v == nil {
			continue
		}
		var s string
		switch val := v.(type) {
		case string:
			s = val
		default:
			s = fmt.Sprint(val)
		}
		if s = strings.TrimSpace(s); s != "" {
			out.Fields[name] = s
		}
	}
	return out, nil
}

// missingFields returns the offense's required fields, in catalogue order,
// that are empty or that the model flagged, unless the officer answered them.
func missingFields(offense Offense, c completion, answered map[string]string) []string {
	flagged := make(map[string]bool, len(c.Missing))
	for _, name := range c.Missing {
		flagged[strings.TrimSpace(name)] = true
	}

	var missing []string
	for _, name := range offense.RequiredFields {
		if strings.TrimSpace(answered[name]) != "" {
			continue
		}
		if c.Fields[name] == "" || flagged[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
