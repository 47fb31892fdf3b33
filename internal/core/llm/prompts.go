package llm

import (
	"fmt"
	"strings"

	"github.com/markdave123-py/papernotes/internal/models"
)

const notesSystemPrompt = `Take notes on the following scientific paper.
This is a technical paper outlining a computer science technique.
The goal is to be able to create a complete understanding of the paper after reading all notes.

Rules:
- Include specific quotes and details inside your notes.
- Respond with as many notes as it might take to cover the entire paper.
- Go into as much detail as you can, while keeping each note on a very specific part of the paper.
- Include notes about the results of any experiments the paper describes.
- Include notes about any steps to reproduce the results of the experiments.
- DO NOT respond with notes like: "The author discusses how well XYZ works.", instead explain what XYZ is and how it works.
- For every note, list the page number(s) of the paper it was taken from.`

const qaSystemPrompt = `You are a tenured professor of computer science helping a student with their research.
The student has a question regarding a paper they are reading.
Here are their notes on the paper and some pages of the paper relevant to the question.

Rules:
- Answer only from the notes and the relevant pages.
- If you do not know the answer, say so; do not make one up.
- For every answer, suggest follow-up questions the student could ask next.`

// FormatSegments joins segment texts in order with a blank line between them.
func FormatSegments(segments []models.Segment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, "\n\n")
}

// FormatNotes lists note texts one per line.
func FormatNotes(notes []models.Note) string {
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = n.Note
	}
	return strings.Join(parts, "\n")
}

func notesUserPrompt(segments []models.Segment) string {
	return fmt.Sprintf("Paper:\n%s", FormatSegments(segments))
}

func qaUserPrompt(question string, segments []models.Segment, notes []models.Note) string {
	return fmt.Sprintf("Relevant pages:\n%s\n\nNotes:\n%s\n\nQuestion: %s",
		FormatSegments(segments), FormatNotes(notes), question)
}

// maxPage returns the highest known page number among segments, or 0.
func maxPage(segments []models.Segment) int {
	m := 0
	for _, s := range segments {
		if s.PageNumber > m {
			m = s.PageNumber
		}
	}
	return m
}
