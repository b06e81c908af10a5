package frontmatter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Foo\n---\nHello\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Foo\n"), fm)
	require.Equal(t, []byte("Hello\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\ntitle: Foo\nHello\n")

	_, _, had, _, err := Split(input)
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	input := []byte("---\ntitle: Foo\n---")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Foo\n"), fm)
	require.Empty(t, body)
}

func TestSplit_CRLF(t *testing.T) {
	input := []byte("---\r\ntitle: Foo\r\n---\r\nHello\r\n")

	fm, body, had, style, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "\r\n", style.Newline)
	require.Equal(t, []byte("title: Foo\r\n"), fm)
	require.Equal(t, []byte("Hello\r\n"), body)
}

func TestSplit_EmptyBlock(t *testing.T) {
	input := []byte("---\n---\n# Title\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestJoin_RoundTrips(t *testing.T) {
	input := []byte("---\ntitle: Foo\n---\nHello\n")

	fm, body, had, style, err := Split(input)
	require.NoError(t, err)
	require.Equal(t, input, Join(fm, body, had, style))
}

func TestDecode_RecognizedKeys(t *testing.T) {
	fields, err := ParseYAML([]byte(`
title: "Foo"
description: a post
date: 2026-01-01
layout: single
slug: foo-bar
draft: true
tags: [go, blog]
categories:
  - writing
custom_key: kept
`))
	require.NoError(t, err)

	md, err := Decode(fields)
	require.NoError(t, err)
	require.Equal(t, "Foo", md.Title)
	require.Equal(t, "a post", md.Description)
	require.Equal(t, "single", md.Layout)
	require.Equal(t, "foo-bar", md.Slug)
	require.True(t, md.Draft)
	require.Equal(t, []string{"blog", "go"}, md.Tags)
	require.Equal(t, []string{"writing"}, md.Categories)
	require.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), md.Date)

	// Unrecognized keys are preserved as params, not rejected.
	require.Equal(t, "kept", md.Params["custom_key"])
}

func TestDecode_ScalarTagBecomesList(t *testing.T) {
	md, err := Decode(map[string]any{"tags": "solo"})
	require.NoError(t, err)
	require.Equal(t, []string{"solo"}, md.Tags)
}

func TestDecode_BadDate_ReturnsError(t *testing.T) {
	_, err := Decode(map[string]any{"date": "first of never"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "date")
}

func TestDecode_BadTagElement_ReturnsError(t *testing.T) {
	_, err := Decode(map[string]any{"tags": []any{"ok", 7}})
	require.Error(t, err)
}

func TestSerializeYAML_SortsKeysDeterministically(t *testing.T) {
	out1, err := SerializeYAML(map[string]any{"title": "Foo", "date": "2026-01-01", "draft": false}, Style{})
	require.NoError(t, err)
	out2, err := SerializeYAML(map[string]any{"draft": false, "date": "2026-01-01", "title": "Foo"}, Style{})
	require.NoError(t, err)
	require.Equal(t, out1, out2)
	require.Equal(t, "date: \"2026-01-01\"\ndraft: false\ntitle: Foo\n", string(out1))
}
