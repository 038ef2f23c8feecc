package geoip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIP_NoDatabase(t *testing.T) {
	country, city, region := LookupIP("8.8.8.8")
	assert.Empty(t, country)
	assert.Empty(t, city)
	assert.Empty(t, region)
}

func TestLookupIP_InvalidIP(t *testing.T) {
	country, city, region := LookupIP("not-an-ip")
	assert.Empty(t, country)
	assert.Empty(t, city)
	assert.Empty(t, region)
}

func TestCountryName(t *testing.T) {
	assert.Equal(t, "United States", CountryName("US"))
	assert.Equal(t, "Germany", CountryName("DE"))
	assert.Equal(t, "XZ", CountryName("XZ"))
	assert.Empty(t, CountryName(""))
}
