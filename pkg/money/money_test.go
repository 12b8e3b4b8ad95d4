package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKoboNairaConversion(t *testing.T) {
	assert.Equal(t, Naira(2000), Kobo(200000).Naira())
	assert.Equal(t, Kobo(200000), Naira(2000).Kobo())
	assert.Equal(t, Naira(0), Kobo(99).Naira())
	assert.Equal(t, Naira(1), Kobo(150).Naira())
}
