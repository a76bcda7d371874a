package compress

import "testing"

func TestFilePassesStructuredFormatsThrough(t *testing.T) {
	content := "{\n  \"key\": \"value\"\n}\n"
	for _, path := range []string{"config.json", "deploy.yaml", "deploy.YML"} {
		if got := File(path, content); got != content {
			t.Fatalf("%s: expected passthrough, got %q", path, got)
		}
	}
}

func TestFileCompressesSourceExtensions(t *testing.T) {
	content := "# header comment\nx = 1\n"
	if got := File("script.py", content); got != "x = 1" {
		t.Fatalf("expected comment dropped, got %q", got)
	}
}

func TestSourceDropsBlankLinesAndFullLineComments(t *testing.T) {
	content := "# top comment\n\nimport os\n\n\n    # indented comment\nprint(os.name)\n"
	want := "import os\nprint(os.name)"
	if got := Source(content); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSourceKeepsHashInsideStrings(t *testing.T) {
	got := Source(`x = "a#b"  # trailing note`)
	if got != `x = "a#b"` {
		t.Fatalf("expected in-string hash preserved and comment dropped, got %q", got)
	}
}

func TestSourceCollapsesRedundantWhitespace(t *testing.T) {
	got := Source("result   =  compute( a ,  b )")
	if got != "result = compute( a , b )" {
		t.Fatalf("unexpected collapse result %q", got)
	}
}

func TestSourcePreservesDocstrings(t *testing.T) {
	content := "def f():\n" +
		"    \"\"\"\n" +
		"    Summary line.\n" +
		"\n" +
		"    # not a comment inside the docstring\n" +
		"    \"\"\"\n" +
		"    return 1  # inline\n"
	want := "def f():\n" +
		"\"\"\"\n" +
		"Summary line.\n" +
		"# not a comment inside the docstring\n" +
		"\"\"\"\n" +
		"return 1"
	if got := Source(content); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSourceHandlesOneLineDocstring(t *testing.T) {
	content := "def f():\n" +
		"    \"\"\"Summary.\"\"\"\n" +
		"    # drop me\n" +
		"    return 1\n"
	want := "def f():\n" +
		"\"\"\"Summary.\"\"\"\n" +
		"return 1"
	if got := Source(content); got != want {
		t.Fatalf("expected one-line docstring to close immediately, got %q", got)
	}
}

func TestDedentRemovesCommonIndent(t *testing.T) {
	got := dedent("    a\n    b\n      c")
	if got != "a\nb\n  c" {
		t.Fatalf("unexpected dedent result %q", got)
	}
}

func TestDedentLeavesMixedIndentAlone(t *testing.T) {
	content := "a\n    b"
	if got := dedent(content); got != content {
		t.Fatalf("expected no change, got %q", got)
	}
}
