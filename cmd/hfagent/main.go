// Command hfagent runs tool-using agents backed by Hugging Face.
//
// Usage:
//
//	hfagent [--env-file .env] <command> [task]
//
// Commands:
//
//	search     - answer a question with the web search tool
//	visit      - answer a question by reading web pages
//	hub        - look up the most downloaded Hub model for a task
//	imagine    - improve a prompt and generate an image from it
//	generate   - generate an image directly, without an LLM
//	serve-mcp  - expose the tools over MCP on stdio
package main

import (
	"fmt"
	"os"

	"github.com/sweetpotato0/hfagents/cmd/hfagent/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
