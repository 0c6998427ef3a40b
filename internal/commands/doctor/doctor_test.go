package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/chatbox/internal/core/config"
)

type staticCheck struct {
	name  string
	items []CheckItem
}

func (s staticCheck) Name() string { return s.name }

func (s staticCheck) Run(context.Context) Result {
	return Result{Name: s.name, Items: s.items}
}

func TestRunAllAndSummary(t *testing.T) {
	results := RunAll(context.Background(), []Check{
		staticCheck{name: "a", items: []CheckItem{
			{Label: "one", Status: StatusPass},
			{Label: "two", Status: StatusWarn, Fixable: true},
		}},
		staticCheck{name: "b", items: []CheckItem{
			{Label: "three", Status: StatusFail},
			{Label: "four", Status: StatusFail, Fixable: true},
		}},
	})

	require.Len(t, results, 2)

	passed, warned, failed := Summary(results)
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, warned)
	assert.Equal(t, 2, failed)
	assert.Equal(t, 2, CountFixable(results))

	report := NewReport(results)
	assert.False(t, report.Healthy)
	assert.Equal(t, ReportSummary{Passed: 1, Warned: 1, Failed: 2}, report.Summary)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"warn"`)
	assert.Contains(t, string(data), `"fixable":2`)
}

func TestRunAll_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := RunAll(ctx, []Check{staticCheck{name: "a"}})
	assert.Empty(t, results)
}

func TestConfigCheck(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		result := NewConfigCheck(nil, "").Run(context.Background())
		require.Len(t, result.Items, 1)
		assert.Equal(t, StatusFail, result.Items[0].Status)
	})

	t.Run("valid with missing file", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.DataDir = t.TempDir()
		cfg.Server.CORSOrigins = []string{"http://localhost:4173"}

		result := NewConfigCheck(&cfg, filepath.Join(t.TempDir(), "config.yaml")).Run(context.Background())

		assert.Equal(t, []string{"Config file", "Config valid"}, labels(result.Items))
		_, warned, failed := Summary([]Result{result})
		assert.Zero(t, warned)
		assert.Zero(t, failed)
	})

	t.Run("field errors and warnings", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("{}"), 0o644))

		cfg := config.DefaultConfig()
		cfg.DataDir = t.TempDir()
		cfg.Store.MaxMessages = 0

		result := NewConfigCheck(&cfg, cfgPath).Run(context.Background())

		_, warned, failed := Summary([]Result{result})
		assert.Equal(t, 1, failed)
		assert.Equal(t, 1, warned)
		assert.Contains(t, labels(result.Items), "store.max_messages")
	})
}

type fakeHealth struct {
	err error
}

func (f fakeHealth) Health(context.Context) error { return f.err }
func (f fakeHealth) BaseURL() string              { return "http://localhost:4173" }

func TestServerCheck(t *testing.T) {
	result := NewServerCheck(fakeHealth{}, 0).Run(context.Background())
	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusPass, result.Items[0].Status)

	result = NewServerCheck(fakeHealth{err: errors.New("connection refused")}, 0).Run(context.Background())
	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusWarn, result.Items[0].Status)
	assert.Contains(t, result.Items[0].Detail, "connection refused")
}
