package randid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	id := Generate(12)
	assert.Len(t, id, 12)
	assert.Regexp(t, `^[a-z0-9]{12}$`, id)

	assert.Empty(t, Generate(0))
	assert.Empty(t, Generate(-1))
}

func TestName(t *testing.T) {
	assert.Regexp(t, `^bot-[a-z0-9]{6}$`, Name("bot", 6))
	assert.Regexp(t, `^[a-z0-9]{4}$`, Name("", 4))
}
