package standardize

import (
	"errors"
	"testing"
)

// TestValidate tests the structural markup check.
func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "complete document", input: "<!DOCTYPE html><html><head><title>x</title></head><body><div><p>a</p></div></body></html>"},
		{name: "fragment", input: "<div>hello</div>"},
		{name: "optional end tags omitted", input: "<ul><li>a<li>b</ul><p>one<p>two<table><tr><td>x</table>"},
		{name: "void and self-closing elements", input: "<div><br><img src=a.png><input/><hr/></div>"},
		{name: "stray end tag", input: "<div>x</div></span>"},
		{name: "markup inside script", input: `<script>var s = "<div>";</script><div></div>`},
		{name: "missing html and body end tags", input: "<html><body><div>x</div>"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: " \n\t ", wantErr: true},
		{name: "truncated element", input: "<html><body><div><p>text", wantErr: true},
		{name: "end tag closes past open span", input: "<div><span>x</div>", wantErr: true},
		{name: "unterminated script", input: "<body><script>var a = 1;", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate([]byte(tt.input))
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err != nil {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Errorf("expected *ParseError, got %T", err)
				}
			}
		})
	}

	t.Run("empty document wraps ErrEmptyDocument", func(t *testing.T) {
		t.Parallel()
		if err := Validate(nil); !errors.Is(err, ErrEmptyDocument) {
			t.Errorf("expected ErrEmptyDocument, got %v", err)
		}
	})

	t.Run("error reports the line", func(t *testing.T) {
		t.Parallel()
		err := Validate([]byte("<div>\n<section>\n<span>x\n</section>\n</div>"))
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("expected *ParseError, got %v", err)
		}
		if pe.Line != 4 {
			t.Errorf("expected line 4, got %d (%v)", pe.Line, err)
		}
	})
}
