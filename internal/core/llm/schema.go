package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/markdave123-py/papernotes/internal/core"
	"github.com/markdave123-py/papernotes/internal/models"
)

// SchemaMismatchError carries model output that did not match the requested shape.
type SchemaMismatchError struct {
	Raw    string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("model output does not match schema: %s", e.Reason)
}

func (e *SchemaMismatchError) Unwrap() error { return core.ErrMalformedModelOutput }

// ParseResult is the outcome of decoding model output: either Value or Mismatch is set.
type ParseResult[T any] struct {
	Value    T
	Mismatch *SchemaMismatchError
}

func (r ParseResult[T]) OK() bool { return r.Mismatch == nil }

// Result returns the value, or the mismatch classified as an upstream failure.
func (r ParseResult[T]) Result(op string) (T, error) {
	if r.Mismatch != nil {
		var zero T
		return zero, core.UpstreamError(op, r.Mismatch)
	}
	return r.Value, nil
}

// Decode parses raw as JSON into T and runs validate on the result.
func Decode[T any](raw string, validate func(T) error) ParseResult[T] {
	var v T
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	if err := dec.Decode(&v); err != nil {
		return ParseResult[T]{Mismatch: &SchemaMismatchError{Raw: raw, Reason: err.Error()}}
	}
	if validate != nil {
		if err := validate(v); err != nil {
			return ParseResult[T]{Mismatch: &SchemaMismatchError{Raw: raw, Reason: err.Error()}}
		}
	}
	return ParseResult[T]{Value: v}
}

type notesPayload struct {
	Notes []models.Note `json:"notes" jsonschema:"the notes taken on the paper"`
}

type answersPayload struct {
	Answers []models.Answer `json:"answers" jsonschema:"one or more answers to the question"`
}

// validateNotes checks presence and page bounds. pageLimit 0 disables the upper bound.
func validateNotes(pageLimit int) func(notesPayload) error {
	return func(p notesPayload) error {
		if p.Notes == nil {
			return fmt.Errorf("missing notes array")
		}
		for i, n := range p.Notes {
			if strings.TrimSpace(n.Note) == "" {
				return fmt.Errorf("note %d is empty", i)
			}
			for _, pg := range n.PageNumbers {
				if pg < 1 || (pageLimit > 0 && pg > pageLimit) {
					return fmt.Errorf("note %d cites page %d outside 1..%d", i, pg, pageLimit)
				}
			}
		}
		return nil
	}
}

func validateAnswer(a models.Answer) error {
	if strings.TrimSpace(a.Answer) == "" {
		return fmt.Errorf("empty answer")
	}
	return nil
}

func validateAnswers(p answersPayload) error {
	if len(p.Answers) == 0 {
		return fmt.Errorf("no answers")
	}
	for _, a := range p.Answers {
		if err := validateAnswer(a); err != nil {
			return err
		}
	}
	return nil
}

func normalizeNotes(notes []models.Note) []models.Note {
	for i := range notes {
		if notes[i].PageNumbers == nil {
			notes[i].PageNumbers = []int{}
		}
	}
	return notes
}

func normalizeAnswers(answers []models.Answer) []models.Answer {
	for i := range answers {
		if answers[i].FollowupQuestions == nil {
			answers[i].FollowupQuestions = []string{}
		}
	}
	return answers
}

// schemaFor renders the JSON schema of T as a plain map for request payloads.
func schemaFor[T any]() (map[string]any, error) {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
