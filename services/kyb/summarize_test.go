package kyb

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"kyb-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "bare object",
			input:    `{"entity_name": "Levain Bakery", "summary": "Cookies."}`,
			expected: `{"entity_name": "Levain Bakery", "summary": "Cookies."}`,
		},
		{
			name:     "object wrapped in prose",
			input:    "Sure! Here is the JSON you asked for:\n{\"entity_name\": \"Levain Bakery\"}\nLet me know if you need anything else.",
			expected: `{"entity_name": "Levain Bakery"}`,
		},
		{
			name:     "nested object",
			input:    `prefix {"a": {"b": 1}, "c": 2} suffix`,
			expected: `{"a": {"b": 1}, "c": 2}`,
		},
		{
			name:     "braces inside strings",
			input:    `{"summary": "uses {curly} braces and a \" quote"}`,
			expected: `{"summary": "uses {curly} braces and a \" quote"}`,
		},
		{
			name:     "no object",
			input:    "I could not find any business information.",
			expected: "",
		},
		{
			name:     "unbalanced object",
			input:    `{"entity_name": "Levain`,
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, extractJSONObject(tc.input))
		})
	}
}

type fakeCompletion struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestSummarizeEntity(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/kyb")
	defer cleanup()

	llm := &fakeCompletion{
		response: `Here you go: {"entity_name": "Levain Bakery", "summary": "A bakery."}`,
	}
	s := Service{llm: llm}

	summary, err := s.summarizeEntity(context.Background(), "Levain Bakery. Fresh cookies daily.")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Levain Bakery", summary.EntityName)
	require.Equal(t, "A bakery.", summary.Summary)
}

func TestSummarizeEntityTruncatesInput(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/kyb")
	defer cleanup()

	llm := &fakeCompletion{
		response: `{"entity_name": "Big Corp", "summary": "Large."}`,
	}
	s := Service{llm: llm}

	long := make([]byte, summaryInputLimit*2)
	for i := range long {
		long[i] = 'a'
	}
	_, err := s.summarizeEntity(context.Background(), string(long))
	if err != nil {
		t.Fatal(err)
	}

	require.Len(t, llm.prompts, 1)
	require.LessOrEqual(t, len(llm.prompts[0]), summaryInputLimit+len(summaryInstruction))
}

func TestSummarizeEntityTruncatesOnRuneBoundary(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/kyb")
	defer cleanup()

	llm := &fakeCompletion{
		response: `{"entity_name": "Boulangerie", "summary": "Bread."}`,
	}
	s := Service{llm: llm}

	// place a multi-byte rune straddling the truncation point
	text := strings.Repeat("a", summaryInputLimit-1) + strings.Repeat("é", 50)
	_, err := s.summarizeEntity(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}

	require.Len(t, llm.prompts, 1)
	require.True(t, utf8.ValidString(llm.prompts[0]))
	require.NotContains(t, llm.prompts[0], "�")
}

func TestSummarizeEntityParseFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/kyb")
	defer cleanup()

	for _, response := range []string{
		"no json here at all",
		`{"entity_name": 42}`,
		`{"summary": "missing the name"}`,
	} {
		s := Service{llm: &fakeCompletion{response: response}}
		_, err := s.summarizeEntity(context.Background(), "some text")
		require.ErrorIs(t, err, ErrSummarizeParse, response)
	}
}

func TestSummarizeEntityTimeout(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/kyb")
	defer cleanup()

	s := Service{llm: &fakeCompletion{err: context.DeadlineExceeded}}
	_, err := s.summarizeEntity(context.Background(), "some text")
	require.ErrorIs(t, err, ErrSummarizeTimeout)
}
