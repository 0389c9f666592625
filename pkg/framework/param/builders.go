package param

import (
	"fmt"
	"strings"
)

// ChoiceOption represents a single choice in a list parameter
type ChoiceOption struct {
	Value   float64
	Name    string
	Aliases []string
}

// Choice creates a parameter builder for a multiple choice parameter
func Choice(id uint32, name string, options []ChoiceOption) *Builder {
	formatter := func(value float64) string {
		for _, opt := range options {
			if opt.Value == value {
				return opt.Name
			}
		}
		return "Unknown"
	}

	parser := func(str string) (float64, error) {
		str = strings.TrimSpace(str)
		for _, opt := range options {
			if strings.EqualFold(str, opt.Name) {
				return opt.Value, nil
			}
			for _, alias := range opt.Aliases {
				if strings.EqualFold(str, alias) {
					return opt.Value, nil
				}
			}
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}

	minVal, maxVal := 0.0, 0.0
	if len(options) > 0 {
		minVal = options[0].Value
		maxVal = options[len(options)-1].Value
	}

	b := New(id, name).
		Range(minVal, maxVal).
		Steps(int32(maxVal - minVal)).
		Formatter(formatter, parser)
	b.param.Flags |= IsList
	if len(options) > 0 {
		b.Default(options[0].Value)
	}
	return b
}

// ChannelFilterParameter creates a MIDI channel selector where 0 means "all"
// (labelled allLabel) and 1-16 select a single channel. Extra options are
// appended after channel 16.
func ChannelFilterParameter(id uint32, name, allLabel string, extra ...string) *Builder {
	options := make([]ChoiceOption, 0, 17+len(extra))
	options = append(options, ChoiceOption{Value: 0, Name: allLabel, Aliases: []string{"all", "any"}})
	for ch := 1; ch <= 16; ch++ {
		options = append(options, ChoiceOption{
			Value:   float64(ch),
			Name:    fmt.Sprintf("Channel %d", ch),
			Aliases: []string{fmt.Sprintf("%d", ch)},
		})
	}
	for i, label := range extra {
		options = append(options, ChoiceOption{Value: float64(17 + i), Name: label})
	}
	return Choice(id, name, options)
}

// TimeParameter creates an integer millisecond parameter
func TimeParameter(id uint32, name string, minMs, maxMs, defaultMs float64) *Builder {
	return New(id, name).
		Range(minMs, maxMs).
		Integer().
		Default(defaultMs).
		Unit("ms").
		Formatter(TimeFormatter, TimeParser)
}

// ProgramParameter creates a MIDI program number parameter (0-127)
func ProgramParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(0, 127).
		Integer().
		Default(0)
}
