package mapping

import (
	"testing"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestToDomainAuditFields_NormalizesToUTC(t *testing.T) {
	amsterdam := time.FixedZone("CET", 3600)
	created := time.Date(2024, time.March, 1, 10, 0, 0, 0, amsterdam)
	updated := created.Add(2 * time.Hour)

	d := ToDomainAuditFields(models.AuditFields{
		CreatedAt:     created,
		CreatedBy:     "user-1",
		LastUpdatedAt: updated,
		LastUpdatedBy: "user-2",
	})

	assert.Equal(t, time.UTC, d.CreatedAt.Location())
	assert.True(t, d.CreatedAt.Equal(created))
	assert.Equal(t, 9, d.CreatedAt.Hour())
	assert.Equal(t, time.UTC, d.LastUpdatedAt.Location())
	assert.Equal(t, "user-1", d.CreatedBy)
	assert.Equal(t, "user-2", d.LastUpdatedBy)

	m := ToModelAuditFields(d)
	assert.Equal(t, created.UTC(), m.CreatedAt)
	assert.Equal(t, updated.UTC(), m.LastUpdatedAt)
}
