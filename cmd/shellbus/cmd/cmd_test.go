package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/shellbus/internal/topics"
)

// run executes the root command with args and returns its standard output.
// Flag variables are package globals, so each run starts from defaults.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	listOutputFormat, listModuleFilter, listScopeFilter, listMatch = "table", "", "", ""
	getOutputFormat = "table"
	conflictsOutputFormat, conflictsStrict = "table", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "shellbus v"+version+"\n", out)
}

func TestTopicsList(t *testing.T) {
	t.Run("all topics as json", func(t *testing.T) {
		out, err := run(t, "topics", "list", "--format", "json")
		require.NoError(t, err)

		var got struct {
			Count  int `json:"count"`
			Topics []struct {
				Name    string `json:"name"`
				Version int    `json:"version"`
			} `json:"topics"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.GreaterOrEqual(t, got.Count, len(topics.All()))
	})

	t.Run("match prefix", func(t *testing.T) {
		out, err := run(t, "topics", "list", "--match", "current*")
		require.NoError(t, err)
		assert.Contains(t, out, topics.CurrentThemeTopic.Name())
		assert.NotContains(t, out, topics.UserProfileTopic.Name())
	})

	t.Run("no match", func(t *testing.T) {
		out, err := run(t, "topics", "list", "--module", "nobody")
		require.NoError(t, err)
		assert.Contains(t, out, "No topics found matching: module 'nobody'")
	})

	t.Run("invalid scope", func(t *testing.T) {
		_, err := run(t, "topics", "list", "--scope", "galaxy")
		assert.ErrorContains(t, err, "invalid scope")
	})
}

func TestTopicsGet(t *testing.T) {
	out, err := run(t, "topics", "get", topics.CurrentThemeTopic.Name())
	require.NoError(t, err)
	assert.Contains(t, out, "Channel:     Topic-currentTheme|1")

	_, err = run(t, "topics", "get", "noSuchTopic")
	assert.ErrorContains(t, err, "not found")

	_, err = run(t, "topics", "get", topics.CurrentThemeTopic.Name(), "zero")
	assert.ErrorContains(t, err, "invalid version")
}

func TestTopicsValidate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "registered", args: []string{"userProfile"}, want: "✅ Topic userProfile@1 is valid"},
		{name: "unregistered but well formed", args: []string{"checkout.cartUpdated"}, want: "(not registered)"},
		{name: "bad name", args: []string{"Invalid.Topic"}, want: "❌ Topic name validation failed", wantErr: true},
		{name: "reserved prefix", args: []string{"internal.secret"}, want: "❌", wantErr: true},
		{name: "unknown version", args: []string{"userProfile", "9"}, want: "❌", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"topics", "validate"}, tt.args...)...)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestTopicsConflicts(t *testing.T) {
	out, err := run(t, "topics", "conflicts", "--strict")
	require.NoError(t, err, "the shell catalog has no conflicting entries")
	assert.Equal(t, "No conflicts found\n", out)
}

func TestPublishRejectsBadInput(t *testing.T) {
	_, err := run(t, "publish", "currentTheme", "1", "{not json")
	assert.ErrorContains(t, err, "not valid JSON")

	_, err = run(t, "publish", "noSuchTopic", "1", "true")
	assert.ErrorContains(t, err, "--allow-unknown")
}
