package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render

const (
	padding  = 2
	maxWidth = 80
)

type tickMsg time.Time

type mode int

const (
	spin mode = iota
	bar
	text
	done
)

type Widget struct {
	mode     mode
	title    string
	notice   string
	spinner  spinner.Model
	progress progress.Model
	percent  float64
}

func NewWidget() *Widget {
	s := spinner.New()
	s.Spinner = spinner.Line
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &Widget{
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient()),
		percent:  0,
	}
}

func (w *Widget) SetProgress(title string, percent float64) {
	w.mode = bar
	w.title = title
	w.percent = percent
}

func (w *Widget) SetSpinner(title string) {
	w.mode = spin
	w.title = title
}

// SetText shows a notice under the bar while a bar is up,
// otherwise replaces the view.
func (w *Widget) SetText(title string) {
	if w.mode == bar {
		w.notice = title
		return
	}
	w.mode = text
	w.title = title
}

func (w *Widget) Init() tea.Cmd {
	return tea.Batch(tickCmd(), w.spinner.Tick)
}

func (w *Widget) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c", "q":
			return w, tea.Quit
		}
		return w, nil

	case tea.WindowSizeMsg:
		w.progress.Width = msg.Width - padding*2 - 4
		if w.progress.Width > maxWidth {
			w.progress.Width = maxWidth
		}
		return w, nil

	case Event:
		switch msg.eventType {
		case eventTypeSpin:
			w.SetSpinner(msg.text)
		case eventTypeBar:
			w.notice = ""
			w.SetProgress(msg.text, msg.percent)
		case eventTypeText:
			w.SetText(msg.text)
		case eventTypeDone:
			w.mode = done
			w.title = msg.text
			return w, tea.Quit
		}
		return w, nil

	case tickMsg:
		cmd := w.progress.SetPercent(w.percent)
		return w, tea.Batch(tickCmd(), cmd)

	// FrameMsg is sent when the progress bar wants to animate itself
	case progress.FrameMsg:
		progressModel, cmd := w.progress.Update(msg)
		w.progress = progressModel.(progress.Model)
		return w, cmd

	default:
		var cmd tea.Cmd
		w.spinner, cmd = w.spinner.Update(msg)
		return w, cmd
	}
}

func (w *Widget) View() string {
	pad := strings.Repeat(" ", padding)

	switch w.mode {
	case text, done:
		return fmt.Sprintf("\n%s%s\n\n", pad, w.title)
	case spin:
		return fmt.Sprintf("\n%s%s %s\n\n", pad, w.spinner.View(), w.title)
	case bar:
		view := "\n" +
			pad + w.title + "\n\n" +
			pad + w.progress.View() + "\n"
		if w.notice != "" {
			view += pad + w.notice + "\n"
		}
		return view + pad + helpStyle("Press q to quit") + "\n"
	}
	return ""
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func formatBar(e Event) string {
	return fmt.Sprintf("%s [%3.0f%%]", e.text, e.percent*100)
}
