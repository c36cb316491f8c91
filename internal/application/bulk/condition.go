package bulk

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Knetic/govaluate"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/contract"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/quote"
	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/rfq"
)

// Condition is a compiled guard expression evaluated against each entity of
// a bulk request, e.g. `status == 'sent' && totalPrice < 1000`. Nested
// metadata keys are flattened and must be bracketed: `[metadata.carrier] == 'DHL'`.
type Condition struct {
	expr *govaluate.EvaluableExpression
}

// ParseCondition compiles expression. An empty or "true" expression always passes.
func ParseCondition(expression string) (*Condition, error) {
	cond := strings.TrimSpace(expression)
	if cond == "" || strings.EqualFold(cond, "true") {
		return &Condition{}, nil
	}
	expr, err := govaluate.NewEvaluableExpression(cond)
	if err != nil {
		return nil, err
	}
	return &Condition{expr: expr}, nil
}

// Evaluate runs the condition against params.
func (c *Condition) Evaluate(params map[string]interface{}) (bool, error) {
	if c == nil || c.expr == nil {
		return true, nil
	}
	result, err := c.expr.Evaluate(params)
	if err != nil {
		return false, err
	}
	v, ok := result.(bool)
	if !ok {
		return false, errors.New("condition did not evaluate to boolean")
	}
	return v, nil
}

func ageHours(t time.Time) float64 {
	return time.Since(t).Hours()
}

func rfqParams(r *rfq.RFQ) map[string]interface{} {
	return map[string]interface{}{
		"id":              float64(r.ID),
		"status":          string(r.Status),
		"buyerId":         float64(r.BuyerID),
		"sellerId":        float64(r.SellerID),
		"productId":       float64(r.ProductID),
		"quantity":        float64(r.Quantity),
		"shippingCountry": r.ShippingCountry,
		"deleted":         r.IsDeleted(),
		"ageHours":        ageHours(r.CreatedAt),
	}
}

func quoteParams(q *quote.Quote) map[string]interface{} {
	total, _ := q.TotalPrice.Float64()
	return map[string]interface{}{
		"id":         float64(q.ID),
		"status":     string(q.Status),
		"buyerId":    float64(q.BuyerID),
		"sellerId":   float64(q.SellerID),
		"totalPrice": total,
		"itemCount":  float64(len(q.Items)),
		"rfqBound":   q.IsRFQBound(),
		"deleted":    q.IsDeleted(),
		"ageHours":   ageHours(q.CreatedAt),
	}
}

func contractParams(c *contract.Contract) map[string]interface{} {
	total, _ := c.TotalAmount.Float64()
	params := map[string]interface{}{
		"id":             float64(c.ID),
		"status":         string(c.Status),
		"buyerId":        float64(c.BuyerID),
		"sellerId":       float64(c.SellerID),
		"totalAmount":    total,
		"currency":       c.Currency,
		"contractNumber": c.Number,
		"ageHours":       ageHours(c.CreatedAt),
	}
	if len(c.Metadata) > 0 {
		var m map[string]interface{}
		if err := json.Unmarshal(c.Metadata, &m); err == nil {
			flattenContext("metadata", m, params)
		}
	}
	return params
}

func flattenContext(prefix string, m map[string]interface{}, out map[string]interface{}) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch vv := v.(type) {
		case map[string]interface{}:
			flattenContext(key, vv, out)
		default:
			out[key] = vv
		}
	}
}
