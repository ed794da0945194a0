package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

// render prints resp as indented JSON, or through text for the text format
func render(cmd *cobra.Command, opts *RootOptions, resp map[string]any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", data)
		return err
	}
	text(out)
	return nil
}

// writeCycle prints a RunCycle response, one block per item
func writeCycle(w io.Writer, resp map[string]any) {
	results := list(resp["results"])

	failed, triggered := 0, 0
	for _, r := range results {
		entry := object(r)
		if entry["failed"] == true {
			failed++
		}
		if n, ok := entry["triggered_count"].(float64); ok {
			triggered += int(n)
		}
	}

	fmt.Fprintf(w, "run %s user %s: %d items, %d failed, %d alerts\n",
		resp["run_id"], num(resp["user_id"]), len(results), failed, triggered)

	for _, r := range results {
		entry := object(r)
		name := fmt.Sprintf("%s/%s", entry["marketplace"], entry["external_id"])
		if entry["failed"] == true {
			fmt.Fprintf(w, "  item %s %s FAILED at %s: %s\n",
				num(entry["tracked_item_id"]), name, entry["step"], entry["error"])
			continue
		}
		fmt.Fprintf(w, "  item %s %s snapshot %s, %s alerts\n",
			num(entry["tracked_item_id"]), name, num(entry["snapshot_id"]), num(entry["triggered_count"]))
		for _, f := range list(entry["triggered"]) {
			fired := object(f)
			fmt.Fprintf(w, "    rule %s: %s%s\n", num(fired["rule_id"]), fired["message"], details(fired["details"]))
		}
	}
}

// writeAlerts prints a ListAlerts response
func writeAlerts(w io.Writer, resp map[string]any) {
	alerts := list(resp["alerts"])
	if len(alerts) == 0 {
		fmt.Fprintln(w, "no alerts")
		return
	}
	for _, a := range alerts {
		alert := object(a)
		fmt.Fprintf(w, "%s alert %s item %s rule %s snapshot %s: %s%s\n",
			alert["created_at"], num(alert["alert_id"]), num(alert["tracked_item_id"]),
			num(alert["rule_id"]), num(alert["snapshot_id"]), alert["message"], details(alert["details"]))
	}
}

// writeItems prints a ListTrackedItems response
func writeItems(w io.Writer, resp map[string]any) {
	items := list(resp["items"])
	if len(items) == 0 {
		fmt.Fprintln(w, "no tracked items")
		return
	}
	for _, i := range items {
		item := object(i)
		line := fmt.Sprintf("item %s %s/%s", num(item["tracked_item_id"]), item["marketplace"], item["external_id"])
		if title, ok := item["title"].(string); ok {
			line += fmt.Sprintf(" %q", title)
		}
		if url, ok := item["url"].(string); ok {
			line += " " + url
		}
		fmt.Fprintln(w, line)
	}
}

// details renders alert details as " [k=v ...]" with sorted keys
func details(v any) string {
	m := object(v)
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := " ["
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%v", k, m[k])
	}
	return s + "]"
}

// num renders JSON numbers without a trailing ".0"
func num(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case nil:
		return "-"
	default:
		return fmt.Sprint(n)
	}
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
