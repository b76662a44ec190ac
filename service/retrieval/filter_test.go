package retrieval

import (
	"testing"

	"github.com/coder-lang/Chatbotscannedpdf/model"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/yearscan"
	"github.com/stretchr/testify/assert"
)

func passage(doc string, page int, years ...int) model.RetrievedPassage {
	return model.RetrievedPassage{
		DocName: doc,
		PageNo:  page,
		Years:   years,
		Text:    "text",
		Score:   0.8,
	}
}

func TestFilterByYearsNoQueryYears(t *testing.T) {
	passages := []model.RetrievedPassage{
		passage("a.pdf", 1, 2014),
		passage("b.pdf", 2),
	}

	got := FilterByYears(passages, nil)
	assert.Equal(t, passages, got, "query without temporal intent must not be narrowed")
}

func TestFilterByYearsKeepsIntersecting(t *testing.T) {
	passages := []model.RetrievedPassage{
		passage("a.pdf", 1, 2013, 2014),
		passage("b.pdf", 2, 2016),
		passage("c.pdf", 3),
	}

	got := FilterByYears(passages, []int{2014})
	assert.Len(t, got, 1)
	assert.Equal(t, "a.pdf", got[0].DocName)
	for _, p := range got {
		assert.True(t, yearscan.Intersects(p.Years, []int{2014}))
	}
}

func TestFilterByYearsEmptiesWithoutFallback(t *testing.T) {
	passages := []model.RetrievedPassage{
		passage("a.pdf", 1, 2016),
		passage("b.pdf", 2, 2017),
	}

	got := FilterByYears(passages, []int{2014})
	assert.Empty(t, got, "no fallback to the unfiltered set when the filter empties the list")
}

func TestFilterByYearsFinancialYearQuery(t *testing.T) {
	// "2013-14" extracts to {2013, 2014}; a passage tagged only 2014 matches.
	queryYears := yearscan.Extract("How many cards were issued in 2013-14?")
	passages := []model.RetrievedPassage{
		passage("a.pdf", 1, 2014),
		passage("b.pdf", 2, 2011),
	}

	got := FilterByYears(passages, queryYears)
	assert.Len(t, got, 1)
	assert.Equal(t, "a.pdf", got[0].DocName)
}

func TestConfidenceGateProceed(t *testing.T) {
	passages := []model.RetrievedPassage{passage("a.pdf", 1, 2014)}

	result := ConfidenceGate(passages)
	assert.True(t, result.Proceed)
	assert.Empty(t, result.Reason)
	assert.Equal(t, passages, result.Passages)
}

func TestConfidenceGateReject(t *testing.T) {
	result := ConfidenceGate(nil)
	assert.False(t, result.Proceed)
	assert.Equal(t, RejectReasonNoEvidence, result.Reason)
	assert.Empty(t, result.Passages)
}
