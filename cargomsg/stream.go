// Package cargomsg parses the line-delimited JSON progress stream cargo
// writes to stdout when run with --message-format=json.
package cargomsg

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
)

// ErrAbnormalTermination is returned when the stream ends before cargo
// reported build-finished.
var ErrAbnormalTermination = errors.New("cargo output ended without a build-finished message")

// MalformedMessageError reports a line that is not a valid cargo message.
// It does not end the stream.
type MalformedMessageError struct {
	Line int
	Text string
	Err  error
}

func (e *MalformedMessageError) Error() string {
	text := e.Text
	if len(text) > 120 {
		text = text[:120] + "..."
	}
	return fmt.Sprintf("malformed cargo message on line %d: %v: %q", e.Line, e.Err, text)
}

func (e *MalformedMessageError) Unwrap() error {
	return e.Err
}

const (
	initialBufferSize = 64 * 1024
	// MaxLineSize bounds a single message. Rendered diagnostics for large
	// macro expansions can run to several megabytes.
	MaxLineSize = 16 * 1024 * 1024
)

// Stream classifies cargo messages one line at a time.
type Stream struct {
	scanner  *bufio.Scanner
	line     int
	finished bool
	done     bool
}

// NewStream creates a stream reading from r. Nothing is read until Next is
// called.
func NewStream(r io.Reader) *Stream {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialBufferSize), MaxLineSize)
	return &Stream{scanner: scanner}
}

// Finished reports whether build-finished has been seen.
func (s *Stream) Finished() bool {
	return s.finished
}

// Lines returns the number of lines consumed so far.
func (s *Stream) Lines() int {
	return s.line
}

// Next returns the next event in source order.
//
// A line that cannot be parsed yields a *MalformedMessageError; the caller
// may keep calling Next. After build-finished, or once the input is
// exhausted, Next returns io.EOF. If the input ends before build-finished,
// Next returns ErrAbnormalTermination once before io.EOF. Read errors are
// returned wrapped and end the stream.
func (s *Stream) Next() (Event, error) {
	if s.done {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		s.line++
		raw := s.scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		ev, err := parseLine(s.line, raw)
		if err != nil {
			return nil, err
		}
		if _, ok := ev.(*BuildFinished); ok {
			s.finished = true
			s.done = true
		}
		return ev, nil
	}

	s.done = true
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading cargo output after line %d: %w", s.line, err)
	}
	return nil, ErrAbnormalTermination
}

// All returns the remaining events as a sequence. Malformed lines are
// yielded with a nil event and a *MalformedMessageError; iteration stops
// after build-finished, end of input, or a read error.
func (s *Stream) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(ev, err) {
				return
			}
		}
	}
}

// parseLine classifies a single JSON message.
func parseLine(line int, raw []byte) (Event, error) {
	malformed := func(err error) error {
		return &MalformedMessageError{Line: line, Text: string(raw), Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, malformed(err)
	}
	pos := position{line: line}

	switch env.Reason {
	case "":
		return nil, malformed(errors.New("missing reason field"))

	case ReasonCompilerArtifact:
		var msg artifactMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, malformed(err)
		}
		if msg.Target == nil {
			return nil, malformed(errors.New("compiler-artifact without target"))
		}
		artifact := ArtifactProduced{position: pos}
		artifact.Artifact.PackageID = msg.PackageID
		artifact.Artifact.ManifestPath = msg.ManifestPath
		artifact.Artifact.Target = *msg.Target
		artifact.Artifact.Profile = msg.Profile
		artifact.Artifact.Features = msg.Features
		artifact.Artifact.Filenames = msg.Filenames
		artifact.Artifact.Fresh = msg.Fresh
		if msg.Executable != nil {
			artifact.Artifact.Executable = *msg.Executable
		}
		return &artifact, nil

	case ReasonCompilerMessage:
		var msg compilerMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, malformed(err)
		}
		if len(msg.Message) == 0 || string(msg.Message) == "null" {
			return nil, malformed(errors.New("compiler-message without message"))
		}
		return &CompilerMessage{
			position:     pos,
			PackageID:    msg.PackageID,
			ManifestPath: msg.ManifestPath,
			Target:       msg.Target,
			Payload:      msg.Message,
		}, nil

	case ReasonBuildScriptExecuted:
		var msg buildScriptMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, malformed(err)
		}
		return &BuildScriptOutput{
			position:    pos,
			PackageID:   msg.PackageID,
			LinkedLibs:  msg.LinkedLibs,
			LinkedPaths: msg.LinkedPaths,
			Cfgs:        msg.Cfgs,
			Env:         msg.Env,
			OutDir:      msg.OutDir,
		}, nil

	case ReasonBuildFinished:
		var msg buildFinishedMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, malformed(err)
		}
		if msg.Success == nil {
			return nil, malformed(errors.New("build-finished without success"))
		}
		return &BuildFinished{position: pos, Success: *msg.Success}, nil
	}

	return &UnknownMessage{
		position: pos,
		Reason:   env.Reason,
		Raw:      append(json.RawMessage(nil), raw...),
	}, nil
}
