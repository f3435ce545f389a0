package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"jobwatch/internal/stages"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
	progressBarWidth = 24
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

// renderProgressLine formats one live poll update: bar, percentage, current
// stage, and the stage message when present.
func renderProgressLine(snap stages.Snapshot, colorize bool) string {
	bar := renderProgressBar(snap.OverallProgress, progressBarWidth)
	percent := fmt.Sprintf("%5.1f%%", snap.OverallProgress*100)

	label := "waiting"
	if snap.CurrentStage != "" {
		label = stages.Label(snap.CurrentStage)
	}
	line := fmt.Sprintf("%s %s  %s", bar, percent, label)
	if msg := currentStageMessage(snap); msg != "" {
		line += " - " + msg
	}

	if colorize {
		switch {
		case snap.Error != "":
			return ansiRed + line + ansiReset
		case snap.IsComplete:
			return ansiGreen + line + ansiReset
		}
	}
	return line
}

func renderProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

func currentStageMessage(snap stages.Snapshot) string {
	for _, step := range snap.Steps {
		if step.Stage == snap.CurrentStage {
			return strings.TrimSpace(step.Message)
		}
	}
	return ""
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
