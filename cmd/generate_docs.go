package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/calslack/internal/config"
	"github.com/teemow/calslack/internal/server"
	"github.com/teemow/calslack/internal/tools/calendar_tools"
	"github.com/teemow/calslack/internal/tools/slack_tools"
)

// toolDoc is one documented tool. Write tools are those missing from a
// read-only registration.
type toolDoc struct {
	mcp.Tool
	Write bool
}

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate a markdown reference of every MCP tool from the registered tool
definitions, so the reference cannot drift from the implementation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogue, err := toolCatalogue()
			if err != nil {
				return err
			}
			markdown := generateToolsMarkdown(catalogue)

			if outputFile == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), markdown)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

var toolGroups = []struct {
	category string
	register func(*mcpserver.MCPServer, *server.ServerContext) error
}{
	{category: "Google Calendar Tools", register: calendar_tools.RegisterCalendarTools},
	{category: "Slack Tools", register: slack_tools.RegisterSlackTools},
}

// toolCatalogue returns the tools of every group keyed by category, sorted
// by name. No credentials are needed to describe the tools.
func toolCatalogue() (map[string][]toolDoc, error) {
	listTools := func(register func(*mcpserver.MCPServer, *server.ServerContext) error, readOnly bool) (map[string]*mcpserver.ServerTool, error) {
		cfg := config.Default()
		cfg.Server.ReadOnly = readOnly
		sc, err := server.NewServerContext(context.Background(), cfg, nil)
		if err != nil {
			return nil, err
		}
		defer func() { _ = sc.Shutdown() }()

		mcpSrv := newMCPServer()
		if err := register(mcpSrv, sc); err != nil {
			return nil, err
		}
		return mcpSrv.ListTools(), nil
	}

	catalogue := make(map[string][]toolDoc, len(toolGroups))
	for _, g := range toolGroups {
		all, err := listTools(g.register, false)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", g.category, err)
		}
		readOnly, err := listTools(g.register, true)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s in read-only mode: %w", g.category, err)
		}

		docs := make([]toolDoc, 0, len(all))
		for name, st := range all {
			_, safe := readOnly[name]
			docs = append(docs, toolDoc{Tool: st.Tool, Write: !safe})
		}
		slices.SortFunc(docs, func(a, b toolDoc) int { return strings.Compare(a.Name, b.Name) })
		catalogue[g.category] = docs
	}
	return catalogue, nil
}

func generateToolsMarkdown(catalogue map[string][]toolDoc) string {
	var sb strings.Builder

	categories := make([]string, 0, len(catalogue))
	var writeTools []string
	for category, docs := range catalogue {
		categories = append(categories, category)
		for _, d := range docs {
			if d.Write {
				writeTools = append(writeTools, "`"+d.Name+"`")
			}
		}
	}
	slices.Sort(categories)
	slices.Sort(writeTools)

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools available when running calslack as an MCP server. This file is generated by `calslack generate-docs`.\n\n")
	if len(writeTools) > 0 {
		fmt.Fprintf(&sb, "Write tools (%s) are not registered with `--read-only`.\n\n", strings.Join(writeTools, ", "))
	}

	sb.WriteString("## Table of Contents\n\n")
	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		fmt.Fprintf(&sb, "- [%s](#%s)\n", category, anchor)
	}
	sb.WriteString("\n")

	sb.WriteString("## Google Accounts\n\n")
	sb.WriteString("Calendar tools take an optional `account` argument naming the Google account to use. ")
	sb.WriteString("Without it the configured default account is used. Authorize each account with `calslack auth --account <name>`.\n\n")

	for _, category := range categories {
		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, d := range catalogue[category] {
			writeToolMarkdown(&sb, d)
		}
	}

	return sb.String()
}

func writeToolMarkdown(sb *strings.Builder, d toolDoc) {
	fmt.Fprintf(sb, "### %s\n\n", d.Name)
	if d.Write {
		sb.WriteString("_Write tool._\n\n")
	}
	if d.Description != "" {
		sb.WriteString(d.Description + "\n\n")
	}

	props := d.InputSchema.Properties
	if len(props) == 0 {
		return
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	// Required arguments first, then alphabetical.
	slices.SortFunc(names, func(a, b string) int {
		ra, rb := slices.Contains(d.InputSchema.Required, a), slices.Contains(d.InputSchema.Required, b)
		if ra != rb {
			if ra {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})

	sb.WriteString("| Argument | Type | Required | Description |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, name := range names {
		prop, ok := props[name].(map[string]interface{})
		if !ok {
			continue
		}
		required := "no"
		if slices.Contains(d.InputSchema.Required, name) {
			required = "yes"
		}
		fmt.Fprintf(sb, "| `%s` | %s | %s | %s |\n", name, propertyType(prop), required, propertyDescription(prop))
	}
	sb.WriteString("\n")
}

func propertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

// propertyDescription escapes table pipes and appends enum values.
func propertyDescription(prop map[string]interface{}) string {
	desc, _ := prop["description"].(string)
	desc = strings.ReplaceAll(strings.ReplaceAll(desc, "\n", " "), "|", "\\|")

	var values []string
	switch enum := prop["enum"].(type) {
	case []string:
		values = enum
	case []interface{}:
		for _, v := range enum {
			values = append(values, fmt.Sprint(v))
		}
	}
	if len(values) > 0 {
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = "`" + v + "`"
		}
		desc = strings.TrimSpace(desc + " One of: " + strings.Join(quoted, ", ") + ".")
	}
	return desc
}
