package clean

import "testing"

func TestHTML(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "Hello World", "Hello World"},
		{"tags and nbsp", "<p>Hello&nbsp;<strong>World</strong></p>", "Hello World"},
		{"entities", "Fish &amp; Chips &lt;3", "Fish & Chips <3"},
		{"nested markup", "<div><a href='/x'>Read <em>more</em></a></div>", "Read more"},
		{"thin spaces", "a b c d", "a b c d"},
		{"whitespace runs", "  a \n\t b   c  ", "a b c"},
		{"only markup", "<br/><hr>", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := HTML(tc.in)
			if got != tc.want {
				t.Errorf("HTML(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestHTMLIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"<p>Hello&nbsp;<strong>World</strong></p>",
		"  spaced\tout\ntext  ",
		"5 &gt; 3 &amp;&amp; 2 &lt; 4",
	}

	for _, in := range inputs {
		once := HTML(in)
		twice := HTML(once)
		if once != twice {
			t.Errorf("HTML not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
