package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/SpotlightKid/midiomatic/pkg/ccrecorder"
	"github.com/SpotlightKid/midiomatic/pkg/framework/param"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	labelStyle   = lipgloss.NewStyle().Width(22).Foreground(lipgloss.Color("#666666"))
	channelStyle = lipgloss.NewStyle().Width(8).Align(lipgloss.Left).Bold(true)
	cellStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	statePath := fs.String("state", "", "state file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *statePath == "" {
		fs.Usage()
		return fmt.Errorf("-state is required")
	}

	rec := ccrecorder.New()
	if err := loadState(rec, *statePath); err != nil {
		return err
	}
	fmt.Print(formatState(rec))
	return nil
}

// formatState renders the parameters and the captured values per channel.
func formatState(rec *ccrecorder.Recorder) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(rec.Info.String()))
	sb.WriteString("\n\n")

	for _, p := range rec.GetParameters().All() {
		if p.Flags&param.IsTrigger != 0 {
			continue
		}
		sb.WriteString(labelStyle.Render(p.Name))
		sb.WriteString(p.FormatValue(p.GetValue()))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	table := rec.Snapshot()
	if table.Captured() == 0 {
		sb.WriteString(emptyStyle.Render("no values captured"))
		sb.WriteString("\n")
		return sb.String()
	}

	for ch := 0; ch < ccrecorder.NumChannels; ch++ {
		if table.CapturedOn(ch) == 0 {
			continue
		}
		sb.WriteString(channelStyle.Render(fmt.Sprintf("Ch %d", ch+1)))
		first := true
		for cc := 0; cc < ccrecorder.NumControllers; cc++ {
			value := table.Read(ch, cc)
			if value == ccrecorder.Sentinel {
				continue
			}
			if !first {
				sb.WriteString(" ")
			}
			first = false
			sb.WriteString(cellStyle.Render(fmt.Sprintf("%d=%d", cc, value)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
