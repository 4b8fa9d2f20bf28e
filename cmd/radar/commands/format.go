package commands

import (
	"fmt"
	"strings"
)

// Terminal output helpers shared by every radar subcommand

const ruleWidth = 59

// PrintDoubleSeparator prints a double rule around summaries
func PrintDoubleSeparator() {
	fmt.Println(strings.Repeat("═", ruleWidth))
}

func printStatus(icon, message string) {
	fmt.Printf("%s %s\n", icon, message)
}

// PrintSuccess prints a ✅ line
func PrintSuccess(message string) { printStatus("✅", message) }

// PrintError prints a ❌ line
func PrintError(message string) { printStatus("❌", message) }

// PrintInfo prints an ℹ️ line
func PrintInfo(message string) { printStatus("ℹ️ ", message) }

// PrintWarning prints a ⚠️ line set apart by blank lines
func PrintWarning(message string) {
	fmt.Println()
	printStatus("⚠️ ", message)
	fmt.Println()
}

// PrintTableHeader prints column titles and a rule spanning them
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	total := 2 * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	fmt.Println(strings.Repeat("─", total))
}

// PrintTableRow prints values padded to widths
func PrintTableRow(values []string, widths []int) {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "%-*s", widths[i], v)
	}
	fmt.Println(strings.TrimRight(b.String(), " "))
}

// PrintList prints one bullet per item
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints an aligned "key : value" line
func PrintKeyValue(key, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}
