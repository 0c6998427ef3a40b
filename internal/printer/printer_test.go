package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
)

func TestFatalError_Plain(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).FatalError(errors.New("listen on :4173: address already in use"))

	assert.Contains(t, buf.String(), "Error")
	assert.Contains(t, buf.String(), "address already in use")
}

func TestFatalError_FieldErrors(t *testing.T) {
	var buf bytes.Buffer

	fieldErrs := criterio.FieldErrors{
		{Field: "store.max_messages", Err: errors.New("must be at least 1")},
		{Field: "client.url", Err: errors.New(`invalid URL "x"`)},
	}
	New(&buf).FatalError(fmt.Errorf("load config: invalid config: %w", fieldErrs))

	out := buf.String()
	assert.Contains(t, out, "Validation Error")
	assert.Contains(t, out, "load config: invalid config")
	assert.Contains(t, out, "store.max_messages: must be at least 1")
	assert.Contains(t, out, "client.url: ")
}

func TestFatalError_Nil(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).FatalError(nil)
	assert.Empty(t, buf.String())
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	ctx := NewContext(context.Background(), p)
	assert.Same(t, p, Ctx(ctx))
	assert.NotNil(t, Ctx(context.Background()))
}

func TestItems(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Section("Store")
	p.CheckItem("messages.json", "12 retained")
	p.WarnItem("images", "3 orphans")
	p.FailItem("data dir", "")

	out := buf.String()
	assert.Contains(t, out, "Store")
	assert.Contains(t, out, "messages.json: 12 retained")
	assert.Contains(t, out, "images: 3 orphans")
	assert.Contains(t, out, "data dir\n")
}
