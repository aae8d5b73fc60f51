package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectByExtension(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"src/app.py", "python"},
		{"web/index.JS", "javascript"},
		{"web/App.tsx", "typescript"},
		{"Main.java", "java"},
		{"lib.rs", "rust"},
		{"include/list.h", "c"},
		{"impl.cpp", "cpp"},
		{"app.rb", "ruby"},
		{"Model.cs", "csharp"},
		{"script.sh", "shell"},
		{"README.md", "markdown"},
		{"schema.sql", "sql"},
		{"noext", Unknown},
		{"archive.tar.gz", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.path, nil))
		})
	}
}

func TestDetectShebang(t *testing.T) {
	tests := []struct {
		name string
		head string
		want string
	}{
		{"python direct", "#!/usr/bin/python\nprint('hi')", "python"},
		{"python via env", "#!/usr/bin/env python3\nprint('hi')", "python"},
		{"versioned interpreter", "#!/usr/bin/python3.12\n", "python"},
		{"bash", "#!/bin/bash\necho hi", "shell"},
		{"node via env", "#!/usr/bin/env node\n", "javascript"},
		{"crlf line ending", "#!/bin/sh\r\necho hi", "shell"},
		{"no shebang", "package main\n", Unknown},
		{"empty", "", Unknown},
		{"bare shebang", "#!\n", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect("scripts/run", []byte(tt.head)))
		})
	}
}

func TestExtensionWinsOverShebang(t *testing.T) {
	// A .go extension is trusted even with a misleading first line.
	got := Detect("tool.go", []byte("#!/usr/bin/env python3\n"))
	assert.Equal(t, "go", got)
}

func TestFromExtension(t *testing.T) {
	assert.Equal(t, "go", FromExtension(".go"))
	assert.Equal(t, "python", FromExtension(".PY"))
	assert.Equal(t, Unknown, FromExtension(".xyz"))
	assert.Equal(t, Unknown, FromExtension(""))
}
