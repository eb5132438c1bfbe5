package setup

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_proseAroundObject(t *testing.T) {
	raw := "Sure! {\"title\": \"Reform Era\", \"themes\": [\"law\", 42, \" politics \"]}"
	got, ok := Parse(raw)
	if !ok {
		t.Fatal("expected a result")
	}
	if got.Title == nil || *got.Title != "Reform Era" {
		t.Errorf("title = %v", got.Title)
	}
	if want := []string{"law", "politics"}; !reflect.DeepEqual(got.Themes, want) {
		t.Errorf("themes = %v, want %v", got.Themes, want)
	}
	if got.Range != nil || got.Questions != nil {
		t.Errorf("absent fields should be nil: %+v", got)
	}
}

func TestParse_noResult(t *testing.T) {
	for _, raw := range []string{
		"",
		"I could not set that up.",
		"only an opening {",
		"} reversed {",
		"{ not json }",
		"```json\n[1, 2]\n```",
	} {
		if _, ok := Parse(raw); ok {
			t.Errorf("Parse(%q) should yield no result", raw)
		}
	}
}

func TestParse_codeFence(t *testing.T) {
	raw := "```json\n{\"title\":\" Hanseatic League \",\"range\":\"1356-1862\",\"prompt\":\"Trade routes\"}\n```"
	got, ok := Parse(raw)
	if !ok {
		t.Fatal("expected a result")
	}
	if *got.Title != "Hanseatic League" || *got.Range != "1356-1862" || *got.Prompt != "Trade routes" {
		t.Errorf("unexpected fields: title=%q range=%q prompt=%q", *got.Title, *got.Range, *got.Prompt)
	}
}

func TestParse_wrongShapesAreAbsent(t *testing.T) {
	raw := `{"title": 7, "summary": ["a"], "themes": "law", "questions": [null, "", " why? "]}`
	got, ok := Parse(raw)
	if !ok {
		t.Fatal("expected a result")
	}
	if got.Title != nil || got.Summary != nil || got.Themes != nil {
		t.Errorf("mistyped fields should be absent: %+v", got)
	}
	if !reflect.DeepEqual(got.Questions, []string{"why?"}) {
		t.Errorf("questions = %v", got.Questions)
	}
}

func TestSkeleton_fallbacks(t *testing.T) {
	source := strings.Repeat("The long struggle over the Silesian succession ", 4)
	sk := Result{}.Skeleton(Fallback{Source: source, Range: "1740-1763"}, false)
	if len([]rune(sk.Title)) != TitleLimit {
		t.Errorf("title should be clipped to %d runes, got %d", TitleLimit, len([]rune(sk.Title)))
	}
	if !strings.HasPrefix(source, sk.Title) {
		t.Errorf("title should be a prefix of the prompt: %q", sk.Title)
	}
	if sk.Range != "1740-1763" {
		t.Errorf("range = %q", sk.Range)
	}
	if sk.Parsed {
		t.Error("parsed should be false")
	}
}

func TestSkeleton_parsedValuesWin(t *testing.T) {
	res, ok := Parse(`{"title":"Seven Years' War","range":"","subphaseTitle":"Opening moves","questions":["Who allied first?"]}`)
	if !ok {
		t.Fatal("expected a result")
	}
	sk := res.Skeleton(Fallback{Source: "war in europe", Range: "1756-1763"}, ok)
	if sk.Title != "Seven Years' War" {
		t.Errorf("title = %q", sk.Title)
	}
	if sk.Range != "1756-1763" {
		t.Errorf("blank parsed range should fall back, got %q", sk.Range)
	}
	if sk.SubphaseTitle != "Opening moves" || len(sk.Questions) != 1 || !sk.Parsed {
		t.Errorf("unexpected skeleton: %+v", sk)
	}
}
