package kyb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/codes"
)

var (
	ErrSummarizeTimeout = errors.New("entity summarization timed out")
	ErrSummarizeParse   = errors.New("could not extract entity information from the model response")
)

// hard truncation to bound prompt size
const summaryInputLimit = 10000

const summaryInstruction = "Based on the following business information, provide a JSON object with two keys: 'entity_name' (the simple name of the business, no TM or anything) and 'summary' (a two-sentence summary of the business, its main products or services, and any standout features). Format your response as a valid JSON string.\n\n%s"

type entitySummary struct {
	EntityName string `json:"entity_name"`
	Summary    string `json:"summary"`
}

func (s Service) summarizeEntity(ctx context.Context, text string) (entitySummary, error) {
	ctx, span := tracer.Start(ctx, "summarizeEntity")
	defer span.End()

	if len(text) > summaryInputLimit {
		// back off to a rune boundary so the prompt stays valid utf-8
		cut := summaryInputLimit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	response, err := s.llm.Complete(ctx, fmt.Sprintf(summaryInstruction, text))
	if err != nil {
		span.RecordError(err)
		if isTimeout(err) {
			span.SetStatus(codes.Error, ErrSummarizeTimeout.Error())
			return entitySummary{}, fmt.Errorf("%w: %s", ErrSummarizeTimeout, err)
		}
		span.SetStatus(codes.Error, "completion failed")
		return entitySummary{}, err
	}

	raw := extractJSONObject(response)
	if raw == "" {
		span.SetStatus(codes.Error, ErrSummarizeParse.Error())
		return entitySummary{}, ErrSummarizeParse
	}

	var out entitySummary
	err = json.Unmarshal([]byte(raw), &out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrSummarizeParse.Error())
		return entitySummary{}, fmt.Errorf("%w: %s", ErrSummarizeParse, err)
	}
	if out.EntityName == "" {
		span.SetStatus(codes.Error, ErrSummarizeParse.Error())
		return entitySummary{}, fmt.Errorf("%w: response is missing entity_name", ErrSummarizeParse)
	}
	return out, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// extractJSONObject returns the first balanced {...} substring, models
// tend to wrap the object in prose even when told not to.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
