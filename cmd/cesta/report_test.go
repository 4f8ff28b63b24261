package main

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func bold(s string) string {
	return "\x1b[1;38;5;86m" + s + "\x1b[0m"
}

func TestWriteTableAlignsStyledHeader(t *testing.T) {
	var out bytes.Buffer
	writeTable(&out, bold, []string{"Categoria", "Valor", "Itens", "%"}, [][]string{
		{"Laticínios", "12.50", "3", "62.5"},
		{"Frutas", "7.50", "2", "37.5"},
	})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "\x1b["), "header should be styled: %q", lines[0])

	plain := ansi.ReplaceAllString(lines[0], "")
	column := func(line, cell string) int {
		return len([]rune(line[:strings.Index(line, cell)]))
	}
	assert.Equal(t, column(plain, "Valor"), column(lines[1], "12.50"))
	assert.Equal(t, column(plain, "Valor"), column(lines[2], "7.50"))
	assert.Equal(t, column(plain, "Itens"), column(lines[1], "3"))
}

func TestWriteTableHeaderOnly(t *testing.T) {
	var out bytes.Buffer
	writeTable(&out, bold, []string{"ID", "Created"}, nil)

	assert.Equal(t, "ID  Created", ansi.ReplaceAllString(strings.TrimRight(out.String(), "\n"), ""))
}
