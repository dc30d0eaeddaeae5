package ffprobe

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type parseState int

const (
	stateIdle parseState = iota
	stateInFormat
	stateInStream
)

// Section markers recognised in each state. Any other line in stateIdle is
// ignored; in the two block states it is read as key=value.
var transitions = map[parseState]map[string]parseState{
	stateIdle: {
		"[FORMAT]": stateInFormat,
		"[STREAM]": stateInStream,
	},
	stateInFormat: {
		"[/FORMAT]": stateIdle,
	},
	stateInStream: {
		"[/STREAM]": stateIdle,
	},
}

// ParseReport parses ffprobe's default -show_streams -show_format output.
// A [STREAM] block that never closes is discarded. When two stream blocks
// share an index the first one wins.
func ParseReport(r io.Reader) (*StreamInfo, error) {
	p := reportParser{
		info: &StreamInfo{Metadata: map[string]string{}},
		seen: map[int]bool{},
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		p.feed(strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ffprobe output: %w", err)
	}
	return p.info, nil
}

// ParseReportBytes is ParseReport over captured output.
func ParseReportBytes(data []byte) (*StreamInfo, error) {
	return ParseReport(bytes.NewReader(data))
}

type reportParser struct {
	state   parseState
	current map[string]string
	info    *StreamInfo
	seen    map[int]bool
}

func (p *reportParser) feed(line string) {
	if next, ok := transitions[p.state][strings.ToUpper(line)]; ok {
		p.transition(next)
		return
	}
	switch p.state {
	case stateIdle:
	case stateInFormat:
		if key, value, ok := splitField(line); ok {
			p.info.Metadata[key] = value
		}
	case stateInStream:
		if key, value, ok := splitField(line); ok {
			p.current[key] = value
		}
	}
}

func (p *reportParser) transition(next parseState) {
	switch {
	case p.state == stateIdle && next == stateInStream:
		p.current = map[string]string{}
	case p.state == stateInStream && next == stateIdle:
		p.closeStream()
	}
	p.state = next
}

func (p *reportParser) closeStream() {
	fields := p.current
	p.current = nil

	stream := Stream{
		Index:     -1,
		CodecName: strings.ToLower(fields["codec_name"]),
		CodecType: strings.ToLower(fields["codec_type"]),
		Fields:    fields,
	}
	stream.Kind = KindOf(stream.CodecType)
	if raw, ok := fields["index"]; ok {
		if idx, err := strconv.Atoi(raw); err == nil {
			if p.seen[idx] {
				return
			}
			p.seen[idx] = true
			stream.Index = idx
		}
	}
	p.info.route(stream)
}

func splitField(line string) (string, string, bool) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.TrimPrefix(key, "tag:")
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}
