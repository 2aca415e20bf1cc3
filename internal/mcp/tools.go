package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool definitions. Argument defaults come from config at call time, so the
// schemas only document them.

var buildToolDef = mcp.NewTool("catalog_build",
	mcp.WithDescription("Scan the pages tree for HTML tool pages and write the tools manifest. Returns scan counts and any per-page errors."),
	mcp.WithString("root",
		mcp.Description("Directory to scan for pages (default: pages)"),
	),
	mcp.WithString("output",
		mcp.Description("Manifest file to write (default: tools-config.json)"),
	),
	mcp.WithBoolean("strict",
		mcp.Description("Abort on the first page error instead of skipping the page"),
	),
)

var inspectToolDef = mcp.NewTool("catalog_inspect",
	mcp.WithDescription("Extract the manifest entry from a single page, including hidden pages. Reports the page's visibility."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to the HTML page to inspect"),
	),
)

var listToolDef = mcp.NewTool("catalog_list",
	mcp.WithDescription("List every page under the root with its title, visibility, and rank, without writing the manifest."),
	mcp.WithString("root",
		mcp.Description("Directory to scan for pages (default: pages)"),
	),
)

var historyToolDef = mcp.NewTool("catalog_history",
	mcp.WithDescription("Return recent manifest builds, newest first."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of builds to return (default: 20)"),
	),
)
