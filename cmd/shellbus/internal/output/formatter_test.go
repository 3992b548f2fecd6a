package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nfrund/shellbus/internal/topicmgr"
)

func sampleTopics() []topicmgr.Topic {
	return []topicmgr.Topic{
		topicmgr.DefineFramework(topicmgr.Definition{
			Name:        "currentTheme",
			Version:     1,
			ReplayLast:  true,
			Description: "Theme applied to the shell",
			Metadata:    map[string]any{"owner": "shell", "area": "ui"},
		}),
		topicmgr.DefineModule(topicmgr.Definition{
			Name:        "checkout.cartUpdated",
			Version:     2,
			Module:      "checkout",
			Description: "A very long description that will not fit into the table column at all",
		}),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "table", want: FormatTable},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTopics(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Topics(&buf, FormatTable, sampleTopics()))

		out := buf.String()
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "currentTheme")
		assert.Contains(t, out, "checkout")
		assert.Contains(t, out, "...")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Topics(&buf, FormatJSON, sampleTopics()))

		var got topicList
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, 2, got.Count)
		assert.Equal(t, "currentTheme", got.Topics[0].Name)
		assert.True(t, got.Topics[0].ReplayLast)
		assert.Equal(t, topicmgr.ScopeModule, got.Topics[1].Scope)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Topics(&buf, FormatYAML, sampleTopics()))

		var got topicList
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, 2, got.Count)
		assert.Equal(t, 2, got.Topics[1].Version)
	})
}

func TestTopic_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Topic(&buf, FormatTable, sampleTopics()[0]))

	out := buf.String()
	assert.Contains(t, out, "Channel:     Topic-currentTheme|1")
	assert.Contains(t, out, "Module:      (framework)")
	assert.Contains(t, out, "  area: ui\n  owner: shell\n")
}

func TestConflicts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Conflicts(&buf, FormatTable, nil))
	assert.Equal(t, "No conflicts found\n", buf.String())

	buf.Reset()
	require.NoError(t, Conflicts(&buf, FormatTable, []topicmgr.Conflict{{
		Kind:     topicmgr.ConflictMultipleVersions,
		Name:     "currentTheme",
		Versions: []int{1, 2},
		Message:  "registered with 2 versions",
	}}))
	assert.Contains(t, buf.String(), "1,2")
}

func TestValue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Value(&buf, FormatTable, map[string]any{"name": "dark"}))
	assert.Equal(t, "{\"name\":\"dark\"}\n", buf.String())

	buf.Reset()
	require.NoError(t, Value(&buf, FormatYAML, map[string]any{"name": "dark"}))
	assert.Equal(t, "name: dark\n---\n", buf.String())
}
