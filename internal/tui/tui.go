package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1F47E/go-spritereel/internal/logger"
)

// Display consumes progress events until ctx is done or a done event arrives.
type Display interface {
	Run()
}

type TUI struct {
	ctx      context.Context
	eventsCh chan Event
}

func New(eventsCh chan Event, ctx context.Context) *TUI {
	return &TUI{ctx, eventsCh}
}

func (t *TUI) Run() {
	widget := NewWidget()
	program := tea.NewProgram(widget)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		if _, err := program.Run(); err != nil {
			logger.Log.Errorf("tui: %v", err)
		}
	}()

	// read events from channel and update spinner/progress bar
	for {
		select {
		case <-t.ctx.Done():
			program.Quit()
			<-finished
			return

		case <-finished:
			return

		case event := <-t.eventsCh:
			program.Send(event)
			if event.eventType == eventTypeDone {
				<-finished
				return
			}
		}
	}
}

// Plain writes events as log lines, for pipes and CI.
type Plain struct {
	ctx      context.Context
	eventsCh chan Event
}

func NewPlain(eventsCh chan Event, ctx context.Context) *Plain {
	return &Plain{ctx, eventsCh}
}

func (p *Plain) Run() {
	log := logger.Scope("progress")
	var last string
	for {
		select {
		case <-p.ctx.Done():
			return
		case event := <-p.eventsCh:
			line := event.text
			if event.eventType == eventTypeBar {
				line = formatBar(event)
			}
			if line != last {
				log.Info(line)
				last = line
			}
			if event.eventType == eventTypeDone {
				return
			}
		}
	}
}
