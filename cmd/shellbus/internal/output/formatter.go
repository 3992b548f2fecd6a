// Package output renders catalog entries for the shellbus CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/nfrund/shellbus/internal/topic"
	"github.com/nfrund/shellbus/internal/topicmgr"
)

// Format selects how results are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q, use table, json or yaml", s)
	}
}

type topicList struct {
	Topics []topicmgr.Definition `json:"topics" yaml:"topics"`
	Count  int                   `json:"count" yaml:"count"`
}

// Topics prints a list of catalog entries.
func Topics(w io.Writer, format Format, list []topicmgr.Topic) error {
	defs := make([]topicmgr.Definition, len(list))
	for i, t := range list {
		defs[i] = topicmgr.Describe(t)
	}

	switch format {
	case FormatJSON:
		return writeJSON(w, topicList{Topics: defs, Count: len(defs)})
	case FormatYAML:
		return writeYAML(w, topicList{Topics: defs, Count: len(defs)})
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tREPLAY\tSCOPE\tMODULE\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t-------\t------\t-----\t------\t-----------")
	for _, d := range defs {
		module := d.Module
		if module == "" {
			module = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%t\t%s\t%s\t%s\n",
			d.Name, d.Version, d.ReplayLast, d.Scope, module,
			truncateString(d.Description, 50))
	}
	return tw.Flush()
}

// Topic prints one catalog entry in detail.
func Topic(w io.Writer, format Format, entry topicmgr.Topic) error {
	def := topicmgr.Describe(entry)
	switch format {
	case FormatJSON:
		return writeJSON(w, def)
	case FormatYAML:
		return writeYAML(w, def)
	}

	module := def.Module
	if module == "" {
		module = "(framework)"
	}
	fmt.Fprintf(w, "Name:        %s\n", def.Name)
	fmt.Fprintf(w, "Version:     %d\n", def.Version)
	fmt.Fprintf(w, "Channel:     %s\n", topic.ChannelName(def.Name, def.Version))
	fmt.Fprintf(w, "Replay last: %t\n", def.ReplayLast)
	fmt.Fprintf(w, "Scope:       %s\n", def.Scope)
	fmt.Fprintf(w, "Module:      %s\n", module)
	fmt.Fprintf(w, "Description: %s\n", def.Description)
	if def.Example != "" {
		fmt.Fprintf(w, "Example:     %s\n", def.Example)
	}

	if len(def.Metadata) > 0 {
		fmt.Fprintln(w, "Metadata:")
		keys := make([]string, 0, len(def.Metadata))
		for k := range def.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, def.Metadata[k])
		}
	}
	return nil
}

// Conflicts prints the catalog lint result.
func Conflicts(w io.Writer, format Format, conflicts []topicmgr.Conflict) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, conflicts)
	case FormatYAML:
		return writeYAML(w, conflicts)
	}

	if len(conflicts) == 0 {
		_, err := fmt.Fprintln(w, "No conflicts found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tVERSIONS\tMESSAGE")
	for _, c := range conflicts {
		versions := make([]string, len(c.Versions))
		for i, v := range c.Versions {
			versions[i] = fmt.Sprint(v)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, c.Kind, strings.Join(versions, ","), c.Message)
	}
	return tw.Flush()
}

// Value prints a decoded topic value on a single line, as the watch command
// streams them.
func Value(w io.Writer, format Format, v any) error {
	if format == FormatYAML {
		if err := writeYAML(w, v); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w, "---")
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
