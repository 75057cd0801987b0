package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name            string
		content         string
		wantDeclarative string
		wantExecutable  string
		wantSegments    int
	}{
		{
			name:            "markup only",
			content:         `<div class="card"><p>hello</p></div>`,
			wantDeclarative: `<div class="card"><p>hello</p></div>`,
			wantExecutable:  "",
			wantSegments:    0,
		},
		{
			name:            "single script",
			content:         `<p>hi</p><script>exports.onCreate = function() {};</script>`,
			wantDeclarative: `<p>hi</p>`,
			wantExecutable:  `exports.onCreate = function() {};`,
			wantSegments:    1,
		},
		{
			name:            "segments joined in document order",
			content:         `<script>var a = 1</script><p>x</p><script>var b = a + 1</script>`,
			wantDeclarative: `<p>x</p>`,
			wantExecutable:  "var a = 1\n;\nvar b = a + 1",
			wantSegments:    2,
		},
		{
			name:            "external script stays declarative",
			content:         `<script src="lib.js"></script><script>run()</script>`,
			wantDeclarative: `<script src="lib.js"></script>`,
			wantExecutable:  `run()`,
			wantSegments:    1,
		},
		{
			name:            "non javascript type stays declarative",
			content:         `<script type="application/json">{"a":1}</script><script type="text/javascript">go()</script>`,
			wantDeclarative: `<script type="application/json">{"a":1}</script>`,
			wantExecutable:  `go()`,
			wantSegments:    1,
		},
		{
			name:            "markup-like text inside script is kept verbatim",
			content:         `<script>var s = "<b>bold</b>";</script>`,
			wantDeclarative: ``,
			wantExecutable:  `var s = "<b>bold</b>";`,
			wantSegments:    1,
		},
		{
			name:            "unterminated script runs to end",
			content:         `<p>a</p><script>var x = 1;`,
			wantDeclarative: `<p>a</p>`,
			wantExecutable:  `var x = 1;`,
			wantSegments:    1,
		},
		{
			name:            "uppercase tag",
			content:         `<SCRIPT>up()</SCRIPT><span>s</span>`,
			wantDeclarative: `<span>s</span>`,
			wantExecutable:  `up()`,
			wantSegments:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.content)
			assert.Equal(t, tt.wantDeclarative, got.Declarative)
			assert.Equal(t, tt.wantExecutable, got.Executable)
			assert.Equal(t, tt.wantSegments, got.Segments)
		})
	}
}
