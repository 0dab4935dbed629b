package news

import (
	"strings"
	"testing"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
)

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		"<b>삼성전자</b>, 신고가 &quot;돌파&quot;": `삼성전자, 신고가 "돌파"`,
		"  multiple\n\t spaces  ":         "multiple spaces",
		"plain":                           "plain",
		"":                                "",
	}
	for in, want := range cases {
		if got := CleanText(in); got != want {
			t.Fatalf("CleanText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractRelated(t *testing.T) {
	text := "삼성전자 주가가 올랐다. 날씨가 맑다. 현대차도 강세. 끝"
	got := ExtractRelated(text, []string{"삼성전자", "현대차"})
	want := "삼성전자 주가가 올랐다 현대차도 강세"
	if got != want {
		t.Fatalf("ExtractRelated = %q, want %q", got, want)
	}
	if got := ExtractRelated("관련 없는 문장. 또 다른 문장", []string{"네이버"}); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestPreprocessCapsLength(t *testing.T) {
	long := strings.Repeat("가", maxAnalyzedRunes+10)
	if got := []rune(Preprocess(long)); len(got) != maxAnalyzedRunes {
		t.Fatalf("expected %d runes, got %d", maxAnalyzedRunes, len(got))
	}
}

func TestLabel(t *testing.T) {
	cases := []struct {
		score     float64
		ok        bool
		label     string
		wantScore float64
	}{
		{0.6, true, models.SentimentPositive, 0.6},
		{0.59, true, models.SentimentNeutral, 0.59},
		{0.4, true, models.SentimentNeutral, 0.4},
		{0.39, true, models.SentimentNegative, 0.39},
		{0, false, models.SentimentNeutral, 0.5},
	}
	for _, c := range cases {
		label, score := Label(c.score, c.ok)
		if label != c.label || score != c.wantScore {
			t.Fatalf("Label(%v,%v) = %s %v, want %s %v", c.score, c.ok, label, score, c.label, c.wantScore)
		}
	}
}

func TestLexiconScore(t *testing.T) {
	lx := NewLexicon(nil, nil)
	if _, ok := lx.Score("중립적인 문장"); ok {
		t.Fatalf("no terms should report ok=false")
	}
	if s, _ := lx.Score("주가 상승 호재"); s != 1 {
		t.Fatalf("all positive = %v, want 1", s)
	}
	if s, _ := lx.Score("주가 하락"); s != 0 {
		t.Fatalf("all negative = %v, want 0", s)
	}
	if s, _ := lx.Score("상승 후 하락"); s != 0.5 {
		t.Fatalf("balanced = %v, want 0.5", s)
	}
	custom := NewLexicon([]string{"대박"}, nil)
	if s, ok := custom.Score("대박"); !ok || s != 1 {
		t.Fatalf("extra term not used: %v %v", s, ok)
	}
}
