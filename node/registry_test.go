package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterAndLookup(t *testing.T) {
	tag := TypeTag("registryTestEcho")
	Register(tag, func(id string, cfg Config) (Node, error) { return nil, nil })

	f, ok := Lookup(tag)
	assert.True(t, ok)
	assert.NotNil(t, f)

	_, ok = Lookup(TypeTag("registryTestMissing"))
	assert.False(t, ok)

	found := false
	for _, t := range Registered() {
		if t == tag {
			found = true
		}
	}
	assert.True(t, found, "Registered() should include the newly registered tag")
}
