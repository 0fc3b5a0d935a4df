package ses

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docdesk/internal/domain"
)

func TestBuildBatchText(t *testing.T) {
	name := "April purchases"
	batch := &domain.Batch{
		ID:       "b1",
		Name:     &name,
		Status:   domain.BatchStatusCompleted,
		Progress: domain.Progress{Total: 2, Completed: 1, Failed: 1},
		Jobs: []domain.BatchJob{
			{ID: "j1", Filename: "a.pdf", Status: domain.JobStatusSucceeded},
			{ID: "j2", Filename: "b<1>.pdf", Status: domain.JobStatusFailed},
		},
	}

	subject, body := buildBatchText(batch)
	assert.Equal(t, "Batch April purchases (b1) completed", subject)
	assert.Contains(t, body, "Completed: 1")
	assert.Contains(t, body, "failed: b<1>.pdf (j2)")
	assert.NotContains(t, body, "a.pdf")

	htmlBody := buildBatchHTML(batch)
	assert.Contains(t, htmlBody, "<li>b&lt;1&gt;.pdf</li>")
}
