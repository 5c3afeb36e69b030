package benefit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridian/benefit-ledger/benefit"
)

func TestOverdraftPolicy_RatesByName(t *testing.T) {
	p := benefit.DefaultOverdraftPolicy()

	assert.True(t, p.Rate("medical").Equal(dec("0.5")))
	assert.True(t, p.Rate("dental").Equal(dec("0.2")))
	assert.True(t, p.Rate("maternity").Equal(dec("0.3")))
	assert.True(t, p.Rate("glasses").Equal(dec("0.1")))
	assert.True(t, p.Rate("transport").Equal(dec("0.25")), "unknown types get the default")
}

func TestOverdraftPolicy_NameMatchingIsCaseInsensitive(t *testing.T) {
	p := benefit.DefaultOverdraftPolicy()

	assert.True(t, p.Rate("Medical").Equal(dec("0.5")))
	assert.True(t, p.Rate("GLASSES").Equal(dec("0.1")))
}

func TestOverdraftPolicy_LimitMath(t *testing.T) {
	p := benefit.DefaultOverdraftPolicy()

	assert.True(t, p.Limit("medical", dec("1000000")).Equal(dec("-500000")))
	assert.True(t, p.Limit("glasses", dec("500000")).Equal(dec("-50000")))
	assert.True(t, p.Limit("medical", dec("0")).IsZero())
}

func TestOverdraftPolicy_Breakdown(t *testing.T) {
	p := benefit.DefaultOverdraftPolicy()

	// Above the limit: headroom, no excess.
	bd := p.Breakdown("medical", dec("1000000"), dec("-200000"))
	assert.True(t, bd.Limit.Equal(dec("-500000")))
	assert.True(t, bd.Headroom.Equal(dec("300000")))
	assert.True(t, bd.AmountOver.IsZero())

	// Exactly on the limit: zero headroom, zero excess.
	bd = p.Breakdown("medical", dec("1000000"), dec("-500000"))
	assert.True(t, bd.Headroom.IsZero())
	assert.True(t, bd.AmountOver.IsZero())

	// Below the limit: excess, no headroom.
	bd = p.Breakdown("medical", dec("1000000"), dec("-600000"))
	assert.True(t, bd.AmountOver.Equal(dec("100000")))
	assert.True(t, bd.Headroom.IsZero())
}

func TestOverdraftPolicy_CustomRates(t *testing.T) {
	p := benefit.NewOverdraftPolicy(map[string]float64{"Transport": 0.15}, 0.05)

	assert.True(t, p.Rate("transport").Equal(dec("0.15")))
	assert.True(t, p.Rate("medical").Equal(dec("0.05")))
}
