package javaprint

import (
	"reflect"
	"strings"
	"testing"
)

func TestApplyFilters_Comments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		opts  FilterOptions
		want  string
	}{
		{
			name:  "comments removed, javadoc kept",
			input: "/** Doc. */\nclass A { // trailing\n  /* block */ int x = 1;\n  String u = \"http://x\"; // c\n}\n",
			opts:  FilterOptions{RemoveComments: true},
			want:  "/** Doc. */\nclass A { \n   int x = 1;\n  String u = \"http://x\"; \n}\n",
		},
		{
			name:  "javadoc only",
			input: "/** Doc. */\nclass A {} // kept\n",
			opts:  FilterOptions{RemoveJavadoc: true},
			want:  "\nclass A {} // kept\n",
		},
		{
			name:  "everything",
			input: "/** D */ /* b */ // c\nx",
			opts:  FilterOptions{RemoveComments: true, RemoveJavadoc: true},
			want:  "  \nx",
		},
		{
			name:  "markers inside string literals",
			input: "s = \"/* not */ // no\";\n",
			opts:  FilterOptions{RemoveComments: true},
			want:  "s = \"/* not */ // no\";\n",
		},
		{
			name:  "quote in char literal",
			input: "c = '\"'; // x\n",
			opts:  FilterOptions{RemoveComments: true},
			want:  "c = '\"'; \n",
		},
		{
			name:  "empty block comment is not javadoc",
			input: "a/**/b",
			opts:  FilterOptions{RemoveJavadoc: true},
			want:  "a/**/b",
		},
		{
			name:  "multi-line block comment",
			input: "a /* one\ntwo */ b\n",
			opts:  FilterOptions{RemoveComments: true},
			want:  "a  b\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ApplyFilters(tt.input, tt.opts).Text
			if got != tt.want {
				t.Errorf("ApplyFilters() = %q, want %q", got, tt.want)
			}
		})
	}
}

const formSource = `public class Form {
    @SuppressWarnings("unchecked")
    private void initComponents() {
        if (a) {
            b();
        }
    }

    void other() {}
}
`

func TestApplyFilters_HideInitComponents(t *testing.T) {
	t.Parallel()

	res := ApplyFilters(formSource, FilterOptions{HideInitComponents: true, LineNumbers: true})

	want := `public class Form {
    @SuppressWarnings("unchecked")
    private void initComponents() {
        // initComponents() hidden
    }

    void other() {}
}
`
	if res.Text != want {
		t.Errorf("Text =\n%s\nwant\n%s", res.Text, want)
	}
	if n := strings.Count(res.Text, "initComponents() hidden"); n != 1 {
		t.Errorf("placeholder appears %d times, want 1", n)
	}
	wantLines := []int{1, 2, 3, 4, 7, 8, 9, 10, 0}
	if !reflect.DeepEqual(res.LineNumbers, wantLines) {
		t.Errorf("LineNumbers = %v, want %v", res.LineNumbers, wantLines)
	}
	if res.MaxLineNumber != 10 {
		t.Errorf("MaxLineNumber = %d, want 10", res.MaxLineNumber)
	}
}

func TestApplyFilters_HideMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		opts  FilterOptions
		want  string
	}{
		{
			name:  "throws clause and brace in string",
			input: "class App {\n\tpublic static void main(String[] args) throws Exception {\n\t\trun(\"}\");\n\t}\n}\n",
			opts:  FilterOptions{HideMain: true, TabsToSpaces: true},
			want:  "class App {\n    public static void main(String[] args) throws Exception {\n        // main() hidden\n    }\n}\n",
		},
		{
			name:  "varargs and modifier order",
			input: "static public void main(String... a) { x(); }\n",
			opts:  FilterOptions{HideMain: true},
			want:  "static public void main(String... a) {\n    // main() hidden\n}\n",
		},
		{
			name:  "instance method named main is kept",
			input: "void main(String[] args) { x(); }\n",
			opts:  FilterOptions{HideMain: true},
			want:  "void main(String[] args) { x(); }\n",
		},
		{
			name:  "signature inside a comment is kept",
			input: "// public static void main(String[] args) { }\n",
			opts:  FilterOptions{HideMain: true},
			want:  "// public static void main(String[] args) { }\n",
		},
		{
			name:  "unbalanced body is kept",
			input: "public static void main(String[] args) {\n  x();\n",
			opts:  FilterOptions{HideMain: true},
			want:  "public static void main(String[] args) {\n  x();\n",
		},
		{
			name:  "disabled",
			input: "public static void main(String[] args) { x(); }",
			opts:  FilterOptions{},
			want:  "public static void main(String[] args) { x(); }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ApplyFilters(tt.input, tt.opts).Text
			if got != tt.want {
				t.Errorf("ApplyFilters() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyFilters_CollapseBlankLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
		lines []int
	}{
		{name: "run of blanks", input: "a\n\n \n\t\nb\n\n", want: "a\n\nb\n", lines: []int{1, 2, 5, 0}},
		{name: "no blanks", input: "a\nb\n", want: "a\nb\n", lines: []int{1, 2, 0}},
		{name: "no trailing newline", input: "a\n\n\nb", want: "a\n\nb", lines: []int{1, 2, 4}},
		{name: "crlf", input: "a\r\n\r\n\r\nb\r\n", want: "a\n\nb\n", lines: []int{1, 2, 4, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := ApplyFilters(tt.input, FilterOptions{CollapseBlankLines: true, LineNumbers: true})
			if res.Text != tt.want {
				t.Errorf("Text = %q, want %q", res.Text, tt.want)
			}
			if !reflect.DeepEqual(res.LineNumbers, tt.lines) {
				t.Errorf("LineNumbers = %v, want %v", res.LineNumbers, tt.lines)
			}
		})
	}
}

func TestApplyFilters_Tabs(t *testing.T) {
	t.Parallel()

	in := "\tint x;\n\t\ty();"
	if got := ApplyFilters(in, FilterOptions{TabsToSpaces: true}).Text; got != "    int x;\n        y();" {
		t.Errorf("TabsToSpaces: got %q", got)
	}
	if got := ApplyFilters(in, FilterOptions{}).Text; got != in {
		t.Errorf("no filters should leave text unchanged, got %q", got)
	}
}

func TestApplyFilters_LineNumbersOnlyWhenRequested(t *testing.T) {
	t.Parallel()

	res := ApplyFilters("a\nb\n", FilterOptions{})
	if res.LineNumbers != nil {
		t.Errorf("LineNumbers = %v, want nil", res.LineNumbers)
	}
	if res.MaxLineNumber != 2 {
		t.Errorf("MaxLineNumber = %d, want 2", res.MaxLineNumber)
	}
}

func TestApplyFilters_RemovedLinesKeepOriginalMax(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("class A {}\n")
	for range 120 {
		sb.WriteString("// filler\n")
	}
	res := ApplyFilters(sb.String(), FilterOptions{RemoveComments: true, CollapseBlankLines: true, LineNumbers: true})

	if res.MaxLineNumber != 121 {
		t.Errorf("MaxLineNumber = %d, want 121", res.MaxLineNumber)
	}
	if res.Text != "class A {}\n" {
		t.Errorf("Text = %q, want %q", res.Text, "class A {}\n")
	}
	if want := []int{1, 0}; !reflect.DeepEqual(res.LineNumbers, want) {
		t.Errorf("LineNumbers = %v, want %v", res.LineNumbers, want)
	}
}
