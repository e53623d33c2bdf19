package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartPayload(t *testing.T) {
	assert.Equal(t, "", startPayload("/start"))
	assert.Equal(t, "ABC123", startPayload("/start ABC123"))
	assert.Equal(t, "ABC123", startPayload("/start   ABC123  "))
}

func TestGreeting(t *testing.T) {
	assert.Equal(t, "👋 Bonjour, Marie !", greeting("Marie", "marie42"))
	assert.Equal(t, "👋 Bonjour, marie42 !", greeting("", "marie42"))
	assert.Equal(t, "👋 Bonjour, &lt;b&gt; !", greeting("<b>", ""))
	assert.Equal(t, "👋 Bonjour !", greeting("", ""))
}
