package news

import "strings"

var (
	positiveTerms = []string{
		"상승", "급등", "호재", "강세", "최고", "흑자", "성장", "증가", "개선", "반등",
		"수혜", "돌파", "기대", "호실적", "신고가", "매수", "확대", "회복", "순매수", "상향",
	}
	negativeTerms = []string{
		"하락", "급락", "악재", "약세", "최저", "적자", "감소", "부진", "우려", "손실",
		"리스크", "위기", "하향", "매도", "순매도", "신저가", "둔화", "축소", "소송", "충격",
	}
)

// Lexicon scores text by counting positive and negative term occurrences.
type Lexicon struct {
	pos []string
	neg []string
}

// NewLexicon returns a scorer over the built-in Korean market vocabulary plus extras.
func NewLexicon(extraPos, extraNeg []string) *Lexicon {
	return &Lexicon{
		pos: append(append([]string{}, positiveTerms...), extraPos...),
		neg: append(append([]string{}, negativeTerms...), extraNeg...),
	}
}

// Score returns a value in [0,1]; ok is false when no term matched.
func (l *Lexicon) Score(text string) (float64, bool) {
	p := count(text, l.pos)
	n := count(text, l.neg)
	if p+n == 0 {
		return 0, false
	}
	return 0.5 + 0.5*float64(p-n)/float64(p+n), true
}

func count(text string, terms []string) int {
	total := 0
	for _, t := range terms {
		if t != "" {
			total += strings.Count(text, t)
		}
	}
	return total
}
