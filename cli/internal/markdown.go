package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/devilmonastery/shopfeed/internal/api"
	"github.com/devilmonastery/shopfeed/internal/pkg/timeutil"
)

// renderMarkdown renders markdown content, using glamour for terminal output or plain text otherwise
func renderMarkdown(markdown string, theme string) (string, error) {
	// If stdout is a terminal, render styled markdown using glamour
	if term.IsTerminal(int(os.Stdout.Fd())) {
		rendered, err := glamour.Render(markdown, theme)
		if err != nil {
			// Fall back to plain markdown if rendering fails
			return markdown, nil
		}
		return rendered, nil
	}

	// For non-terminal output (pipes, redirects), return plain markdown
	return markdown, nil
}

// printMarkdown renders and prints markdown using the context's theme
func printMarkdown(cli *CliContext, markdown string) error {
	rendered, err := renderMarkdown(markdown, getTheme(cli.Context))
	if err != nil {
		return err
	}

	fmt.Print(rendered)
	return nil
}

// getTheme returns the theme of a context, or "auto"
func getTheme(ctx *Context) string {
	if ctx == nil || ctx.Rendering.Theme == "" {
		return "auto"
	}
	return ctx.Rendering.Theme
}

// postsMarkdown lays out a feed page, newest first
func postsMarkdown(posts []api.Post, timezone string) string {
	if len(posts) == 0 {
		return "_No posts yet._\n"
	}

	var b strings.Builder
	for i, p := range posts {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&b, "**%s** · %s · `%s`\n\n", p.Author, timeutil.FormatRFC3339(p.CreatedAt, timezone), p.ID)
		b.WriteString(p.Body)
		b.WriteString("\n")
		if len(p.Tags) > 0 {
			b.WriteString("\n")
			for j, tag := range p.Tags {
				if j > 0 {
					b.WriteString(" ")
				}
				fmt.Fprintf(&b, "`#%s`", tag)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// productsMarkdown lays out a store catalogue as a table
func productsMarkdown(storeID string, products []api.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Store %s\n\n", storeID)
	if len(products) == 0 {
		b.WriteString("_No products listed._\n")
		return b.String()
	}

	b.WriteString("| Product | Price | ID |\n|---|---:|---|\n")
	for _, p := range products {
		fmt.Fprintf(&b, "| %s | %s | `%s` |\n", strings.ReplaceAll(p.Name, "|", "\\|"), formatPrice(p.Price), p.ID)
	}
	return b.String()
}

// formatPrice renders minor units as a decimal amount
func formatPrice(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
