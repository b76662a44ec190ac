package retrieval

import (
	"github.com/coder-lang/Chatbotscannedpdf/model"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/yearscan"
	log "github.com/sirupsen/logrus"
)

// RejectReasonNoEvidence is the gate's only rejection reason.
const RejectReasonNoEvidence = "NO_EVIDENCE"

// GateResult is the confidence gate's decision. Exactly one of the two
// outcomes holds: Proceed with Passages, or reject with Reason set.
type GateResult struct {
	Proceed  bool
	Reason   string
	Passages []model.RetrievedPassage
}

// FilterByYears applies the temporal filter. A query without year tokens
// passes the list through unchanged. A query with years keeps only passages
// whose year set intersects the query's years, and an emptied list stays
// empty rather than falling back to the unfiltered set. A wrong-year figure
// presented as fact is worse than no answer.
func FilterByYears(passages []model.RetrievedPassage, queryYears []int) []model.RetrievedPassage {
	if len(queryYears) == 0 {
		return passages
	}

	filtered := make([]model.RetrievedPassage, 0, len(passages))
	for _, passage := range passages {
		if yearscan.Intersects(passage.Years, queryYears) {
			filtered = append(filtered, passage)
		}
	}

	if len(filtered) < len(passages) {
		log.Debugf("temporal filter dropped %d of %d passages for years %v",
			len(passages)-len(filtered), len(passages), queryYears)
	}
	return filtered
}

// ConfidenceGate decides whether the filtered passages are enough grounding
// to generate from. An empty list rejects; the completion service must not
// be called on that path.
func ConfidenceGate(passages []model.RetrievedPassage) GateResult {
	if len(passages) == 0 {
		return GateResult{
			Proceed: false,
			Reason:  RejectReasonNoEvidence,
		}
	}
	return GateResult{
		Proceed:  true,
		Passages: passages,
	}
}
