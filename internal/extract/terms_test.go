package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `INVITATION FOR BIDS
Project: Riverside Pump Station Rehabilitation
Owner: City of Riverside Public Works
Solicitation Number: IFB-2026-014

Bids must be received no later than 2:00 PM on March 12, 2026.
A mandatory pre-bid meeting will be held on site.

Scope of Work: Replacement of two pumps and associated piping.
Prevailing wage rates apply per state law.`

func TestScanTerms(t *testing.T) {
	hits := ScanTerms(sampleDoc)

	require.Contains(t, hits, "project_name")
	assert.Equal(t, "project:", hits["project_name"].Term)
	assert.Equal(t, 1, hits["project_name"].LineNumber)

	require.Contains(t, hits, "bid_due")
	assert.Contains(t, hits["bid_due"].Line, "March 12, 2026")

	require.Contains(t, hits, "job_walk")
	assert.Equal(t, "pre-bid", hits["job_walk"].Term)

	require.Contains(t, hits, "wages")
	assert.NotContains(t, hits, "bid_bond")
	assert.NotContains(t, hits, "insurance")
}

func TestScanTermsFirstHitOnly(t *testing.T) {
	doc := "owner: A\nowner: B\nclient: C"
	hits := ScanTerms(doc)
	require.Contains(t, hits, "client")
	assert.Equal(t, 0, hits["client"].LineNumber)
	assert.Equal(t, "owner", hits["client"].Term)
}

func TestScanTermsContextWindow(t *testing.T) {
	lines := make([]string, 20)
	for i := range lines {
		lines[i] = "filler"
	}
	lines[10] = "Scope of Work: everything"
	hits := ScanTerms(strings.Join(lines, "\n"))

	require.Contains(t, hits, "scope")
	ctx := strings.Split(hits["scope"].Context, "\n")
	assert.Len(t, ctx, 7)
	assert.Equal(t, "Scope of Work: everything", ctx[3])
}

func TestScanTermsContextClampedAtEdges(t *testing.T) {
	hits := ScanTerms("Project: Alpha\nsecond line")
	require.Contains(t, hits, "project_name")
	assert.Equal(t, "Project: Alpha\nsecond line", hits["project_name"].Context)
}

func TestScanTermsEmpty(t *testing.T) {
	assert.Empty(t, ScanTerms(""))
}
