package agent

import "fmt"

// Per-tool character caps for output fed back to the model. Tools not
// listed use defaultOutputCap.
var toolOutputCaps = map[string]int{
	"read_file":       50000,
	"run_command":     30000,
	"search_in_files": 20000,
	"list_files":      20000,
	"fetch_url":       8000,
	"db_query":        20000,
	"docker":          20000,
	"ssh_run":         30000,
	"ssh_read_file":   50000,
}

const defaultOutputCap = 30000

// truncateOutput caps tool output before it is appended to the
// conversation, splitting the budget between head and tail so both the
// start and end of long output survive.
func truncateOutput(output, toolName string) string {
	maxChars, ok := toolOutputCaps[toolName]
	if !ok {
		maxChars = defaultOutputCap
	}
	if len(output) <= maxChars {
		return output
	}
	half := maxChars / 2
	removed := len(output) - maxChars
	return output[:half] +
		fmt.Sprintf("\n\n[Output truncated: %d characters removed from the middle. "+
			"Re-run the tool with more targeted parameters to see specific parts.]\n\n",
			removed) +
		output[len(output)-half:]
}
