package safehtml

import "testing"

func TestTmplEscapesPlainStrings(t *testing.T) {
	got := Tmpl("<div>%s</div>", `<script>alert("x&y")</script>`)
	want := `<div>&lt;script&gt;alert(&quot;x&amp;y&quot;)&lt;/script&gt;</div>`
	if got.Content != want {
		t.Errorf("got %q, want %q", got.Content, want)
	}
}

func TestTmplEscapesNonStrings(t *testing.T) {
	got := Tmpl("<span>%s</span>", 42)
	if got.Content != "<span>42</span>" {
		t.Errorf("got %q", got.Content)
	}
}

func TestTmplPassesThroughNestedHTML(t *testing.T) {
	inner := Tmpl("<b>%s</b>", "safe & sound")
	got := Tmpl("<div>%s</div>", inner)
	want := "<div><b>safe &amp; sound</b></div>"
	if got.Content != want {
		t.Errorf("nested HTML must not be re-escaped: got %q, want %q", got.Content, want)
	}
}

func TestTmplPassesThroughHTMLSlices(t *testing.T) {
	items := []HTML{Tmpl("<li>%s</li>", "a"), Tmpl("<li>%s</li>", "b")}
	got := Tmpl("<ul>%s</ul>", items)
	if got.Content != "<ul><li>a</li><li>b</li></ul>" {
		t.Errorf("got %q", got.Content)
	}
}

func TestTrustedRoundTrip(t *testing.T) {
	raw := `<em onclick="boom()">&nbsp;</em>`
	if Trusted(raw).Content != raw {
		t.Errorf("trusted content must pass through exactly, got %q", Trusted(raw).Content)
	}
}

func TestJoin(t *testing.T) {
	items := []HTML{Trusted("<i>1</i>"), Trusted("<i>2</i>"), Trusted("<i>3</i>")}
	got := Join(items, ", ")
	if got.Content != "<i>1</i>, <i>2</i>, <i>3</i>" {
		t.Errorf("got %q", got.Content)
	}
	if Join(nil, "x").Content != "" {
		t.Error("joining nothing must yield empty markup")
	}
}

func TestEscapeAttr(t *testing.T) {
	got := EscapeAttr("a\nb\t\"c\"")
	want := "a&#10;b&#9;&quot;c&quot;"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
