// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/matt-FFFFFF/monorun/internal/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainBorder = CursorToCol0 + borderGlyph + CursorToCol2

func tagLine(folder string) string {
	return "\n\n" + tagGlyph + folder + "\n" + borderGlyph + CursorToCol2
}

func TestScreen_Confine(t *testing.T) {
	s := NewScreen(&bytes.Buffer{}, WithColour(false))
	tag := Tag{Folder: "/repo/packages/a"}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "newline", in: "a\nb", want: "a\n" + plainBorder + "b"},
		{name: "carriage return run collapses", in: "x\r\x1b[G\x1b[1Gy", want: "x" + plainBorder + "y"},
		{name: "erase line gets a border", in: EraseLine + "z", want: EraseLine + plainBorder + "z"},
		{name: "crlf", in: "q\r\n", want: "q" + plainBorder + "\n" + plainBorder},
		{name: "other sequences untouched", in: "\x1b[32mok\x1b[0m", want: "\x1b[32mok\x1b[0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Confine(tag, tt.in))
		})
	}
}

func TestScreen_TagOnFolderChange(t *testing.T) {
	var buf bytes.Buffer

	s := NewScreen(&buf, WithColour(false))
	a := Tag{Folder: "/repo/packages/a"}
	b := Tag{Folder: "/repo/packages/b"}

	require.NoError(t, s.Print(a, "one\n"))
	require.NoError(t, s.Print(a, "two\n"))
	require.NoError(t, s.Print(b, "three\n"))

	want := tagLine("a") + "one\n" + plainBorder +
		"two\n" + plainBorder +
		tagLine("b") + "three\n" + plainBorder
	assert.Equal(t, want, buf.String())
}

func TestScreen_CursorHomeThenOtherTask(t *testing.T) {
	var buf bytes.Buffer

	s := NewScreen(&buf, WithColour(false))
	a := Tag{Folder: "/repo/a"}
	b := Tag{Folder: "/repo/b"}

	require.NoError(t, s.Print(a, "50%\x1b[1G"))
	require.NoError(t, s.Print(b, "hello"))

	out := buf.String()
	aEnd := strings.Index(out, "50%") + len("50%")
	rest := out[aEnd:]

	assert.True(t, strings.HasPrefix(rest, plainBorder+EraseLine+CursorToCol0+tagLine("b")),
		"the cleared line of a is erased and b's tag printed before b's text, got %q", rest)
	assert.Less(t, strings.Index(out, tagLine("b")), strings.Index(out, "hello"))
}

func TestScreen_ClearingChunkAfterTag(t *testing.T) {
	var buf bytes.Buffer

	s := NewScreen(&buf, WithColour(false))
	require.NoError(t, s.Print(Tag{Folder: "/r/a"}, "\rbar"))

	assert.Equal(t, tagLine("a")+"\n"+plainBorder+"bar", buf.String())
}

func TestScreen_BlankIgnored(t *testing.T) {
	var buf bytes.Buffer

	s := NewScreen(&buf, WithColour(false))
	require.NoError(t, s.Print(Tag{Folder: "/r/a"}, " \n\t"))
	assert.Empty(t, buf.String())
}

func TestScreen_Colour(t *testing.T) {
	var buf bytes.Buffer

	s := NewScreen(&buf, WithColour(true))
	require.NoError(t, s.Print(Tag{Folder: "/r/a", Color: color.FgGreen}, "x"))
	assert.Contains(t, buf.String(), color.Force(tagGlyph+"a", color.FgGreen))
}

func TestScreen_ConcurrentPrint(t *testing.T) {
	var buf bytes.Buffer

	s := NewScreen(&buf, WithColour(false))

	var wg sync.WaitGroup

	for _, f := range []string{"/r/a", "/r/b", "/r/c"} {
		wg.Add(1)

		go func() {
			defer wg.Done()

			sink := s.Sink(Tag{Folder: f}, func(err error) { t.Error(err) })
			for range 50 {
				sink("line\n")
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 150, strings.Count(buf.String(), "line\n"))
}
