package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/examprep/examprep/internal/inference"
	"github.com/examprep/examprep/internal/quiz"
)

// DifficultyFlag presets the difficulty of a quiz. Empty means ask.
type DifficultyFlag inference.Difficulty

// Set implements pflag.Value.
func (f *DifficultyFlag) Set(v string) error {
	d, err := inference.ParseDifficulty(v)
	if err != nil {
		return fmt.Errorf("invalid value %q, valid values are %v", v, inference.Difficulties)
	}
	*f = DifficultyFlag(d)
	return nil
}

// String implements pflag.Value.
func (f *DifficultyFlag) String() string {
	if f == nil {
		return ""
	}
	return string(*f)
}

// Type implements pflag.Value.
func (f *DifficultyFlag) Type() string {
	return "difficulty"
}

// TimerFlag is the per question countdown.
type TimerFlag quiz.TimerDuration

// Set implements pflag.Value.
func (f *TimerFlag) Set(v string) error {
	d, err := quiz.ParseTimerDuration(v)
	if err != nil {
		return err
	}
	*f = TimerFlag(d)
	return nil
}

// String implements pflag.Value.
func (f *TimerFlag) String() string {
	if f == nil {
		return ""
	}
	return quiz.TimerDuration(*f).String()
}

// Type implements pflag.Value.
func (f *TimerFlag) Type() string {
	return "timer"
}

var (
	_ pflag.Value = (*DifficultyFlag)(nil)
	_ pflag.Value = (*TimerFlag)(nil)
)

func addQuizFlags(flags *pflag.FlagSet, difficulty *DifficultyFlag, timer *TimerFlag) {
	flags.Var(difficulty, "difficulty", fmt.Sprintf("Difficulty of the first quiz. Options: %v", inference.Difficulties))
	flags.Var(timer, "timer", "Time per question. Options: none, 30s, 60s, 90s")
}
