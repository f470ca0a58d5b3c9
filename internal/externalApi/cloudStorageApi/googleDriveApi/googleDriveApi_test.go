package googleDriveApi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStaleQuery(t *testing.T) {
	before := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*60*60))

	assert.Equal(
		t,
		"appProperties has { key='source' and value='trade_ledger' } and createdTime < '2024-03-01T09:00:00Z' and trashed = false",
		staleQuery(before),
	)
}
