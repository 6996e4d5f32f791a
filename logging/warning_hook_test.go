package logging

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"testing"
	"time"
)

func TestWarningHookLevels(t *testing.T) {
	hook := NewWarningHook()
	for _, level := range hook.Levels() {
		if level > logrus.WarnLevel {
			t.Errorf("unexpected level %v", level)
		}
	}
}

func TestWarningHookBacklog(t *testing.T) {
	hook := NewWarningHook()
	for i := 0; i < WarningBacklog+16; i++ {
		if err := hook.Fire(&logrus.Entry{
			Time:    time.Now(),
			Level:   logrus.WarnLevel,
			Message: fmt.Sprintf("warning %d", i),
		}); err != nil {
			t.Fatal(err)
		}
	}
	recent := hook.Recent()
	if len(recent) != WarningBacklog {
		t.Fatalf("expected %d warnings, got %d", WarningBacklog, len(recent))
	}
	if recent[0].Message != "warning 16" {
		t.Errorf("unexpected oldest entry %s", recent[0].Message)
	}
	if last := recent[len(recent)-1]; last.Message != fmt.Sprintf("warning %d", WarningBacklog+15) {
		t.Errorf("unexpected newest entry %s", last.Message)
	}
}

func TestRecentReturnsCopy(t *testing.T) {
	hook := NewWarningHook()
	_ = hook.Fire(&logrus.Entry{Time: time.Now(), Level: logrus.ErrorLevel, Message: "original"})
	recent := hook.Recent()
	recent[0].Message = "mutated"
	if hook.Recent()[0].Message != "original" {
		t.Error("Recent must return a copy")
	}
}
