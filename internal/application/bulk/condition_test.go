package bulk

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/contract"
)

func TestParseCondition(t *testing.T) {
	for _, expr := range []string{"", "  ", "true", "TRUE"} {
		c, err := ParseCondition(expr)
		require.NoError(t, err)
		ok, err := c.Evaluate(nil)
		require.NoError(t, err)
		assert.True(t, ok, expr)
	}

	_, err := ParseCondition("(status ==")
	assert.Error(t, err)

	c, err := ParseCondition("quantity + 1")
	require.NoError(t, err)
	_, err = c.Evaluate(map[string]interface{}{"quantity": 1.0})
	assert.Error(t, err, "non boolean result")
}

func TestContractParamsFlattenMetadata(t *testing.T) {
	meta, _ := json.Marshal(map[string]interface{}{
		"shipping": map[string]interface{}{"carrier": "DHL"},
		"priority": 2,
	})
	params := contractParams(&contract.Contract{
		ID:        3,
		Status:    contract.StatusShipped,
		Metadata:  meta,
		CreatedAt: time.Now().Add(-3 * time.Hour),
	})

	assert.Equal(t, "DHL", params["metadata.shipping.carrier"])
	assert.Equal(t, 2.0, params["metadata.priority"])

	c, err := ParseCondition("status == 'shipped' && [metadata.shipping.carrier] == 'DHL' && ageHours > 2")
	require.NoError(t, err)
	ok, err := c.Evaluate(params)
	require.NoError(t, err)
	assert.True(t, ok)
}
