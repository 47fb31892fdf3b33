package extraction

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// fragment is one line of text tagged with its 1-based page.
type fragment struct {
	Page int
	Text string
}

// chunk is a token-bounded group of fragments from a single page.
type chunk struct {
	Pos      int
	Page     int
	Text     string
	TokenCnt int
}

// streamChunk groups fragments into chunks of roughly targetTokens, seeding
// each new chunk with overlapTokens from the tail of the previous one.
// A page change always closes the current chunk and drops the overlap.
func streamChunk(ctx context.Context, g *errgroup.Group, frags <-chan fragment, targetTokens, overlapTokens int) <-chan chunk {
	out := make(chan chunk, 8)

	g.Go(func() error {
		defer close(out)

		var (
			buf    []string
			tokSum int
			pos    int
			page   int
			fresh  int // tokens added since the last emit
		)

		emit := func() error {
			if fresh == 0 {
				return nil
			}
			ch := chunk{Pos: pos, Page: page, Text: strings.Join(buf, "\n"), TokenCnt: tokSum}
			pos++
			select {
			case out <- ch:
			case <-ctx.Done():
				return ctx.Err()
			}
			fresh = 0
			return nil
		}

		keepTail := func() {
			if overlapTokens <= 0 {
				buf, tokSum = buf[:0], 0
				return
			}
			var keep []string
			remain := overlapTokens
			for j := len(buf) - 1; j >= 0 && remain > 0; j-- {
				keep = append([]string{buf[j]}, keep...)
				remain -= approxTokens(buf[j])
			}
			buf, tokSum = keep, 0
			for _, s := range buf {
				tokSum += approxTokens(s)
			}
		}

		for frag := range frags {
			if err := ctx.Err(); err != nil {
				return err
			}
			if frag.Page != page {
				if err := emit(); err != nil {
					return err
				}
				buf, tokSum, page = buf[:0], 0, frag.Page
			}

			t := approxTokens(frag.Text)
			buf = append(buf, frag.Text)
			tokSum += t
			fresh += t

			if tokSum >= targetTokens {
				if err := emit(); err != nil {
					return err
				}
				keepTail()
			}
		}
		return emit()
	})

	return out
}

// approxTokens estimates tokens at roughly four characters each.
func approxTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}
