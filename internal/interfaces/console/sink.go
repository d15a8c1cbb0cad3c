package console

import (
	"fmt"
	"time"

	"fxwatch/internal/application/port"
)

type Sink struct{}

func NewSink() port.Sink { return &Sink{} }

func (s *Sink) WriteLive(line string) error {
	fmt.Print(line) // no newline, line carries its own \r
	return nil
}

func (s *Sink) WriteSnapshot(ts time.Time, line string) error {
	fmt.Print("\n")
	fmt.Printf("%s %s\n", ts.Format("2006-01-02 15:04:05"), line)
	return nil
}

func (s *Sink) NewLine() error {
	fmt.Print("\n")
	return nil
}
