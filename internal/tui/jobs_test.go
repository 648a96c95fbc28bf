package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestJobBusIDsAreSequential(t *testing.T) {
	bus := newJobBus(context.Background(), 0, nil)
	if got := bus.nextID(jobKindExchange); got != "exchange-1" {
		t.Fatalf("unexpected id %q", got)
	}
	if got := bus.nextID(jobKindExchange); got != "exchange-2" {
		t.Fatalf("unexpected id %q", got)
	}
	if bus.Start(jobKindExchange, func(context.Context) (tea.Msg, error) { return nil, nil }) == nil {
		t.Fatal("start should return a command")
	}
}

func TestExchangeJobReportsError(t *testing.T) {
	m := newTestModelWith(t, &fakeSender{err: errors.New("down")})
	m.composer.SetValue("hello")
	m.submit()
	msg, err := exchangeJob(pendingExchange(t, m))(context.Background())
	if err == nil {
		t.Fatal("expected the send error")
	}
	res, ok := msg.(exchangeResultMsg)
	if !ok || res.result.Err == nil {
		t.Fatalf("unexpected message %#v", msg)
	}
}
