package cargomsg

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/perfgo/seacan/model"
	"github.com/stretchr/testify/require"
)

const (
	libArtifactLine = `{"reason":"compiler-artifact","package_id":"hello_world 0.1.0 (path+file:///src/hello_world)","manifest_path":"/src/hello_world/Cargo.toml","target":{"kind":["lib"],"crate_types":["lib"],"name":"hello_world","src_path":"/src/hello_world/src/lib.rs","edition":"2021","doctest":true,"test":true},"profile":{"opt_level":"0","debuginfo":2,"debug_assertions":true,"overflow_checks":true,"test":false},"features":["default","default_feature"],"filenames":["/src/hello_world/target/debug/libhello_world.rlib"],"executable":null,"fresh":true}`
	testArtifactLine = `{"reason":"compiler-artifact","package_id":"hello_world 0.1.0 (path+file:///src/hello_world)","manifest_path":"/src/hello_world/Cargo.toml","target":{"kind":["test"],"crate_types":["bin"],"name":"frob_a","src_path":"/src/hello_world/tests/frob_a.rs","edition":"2021","doctest":false,"test":true},"profile":{"opt_level":"0","debuginfo":2,"debug_assertions":true,"overflow_checks":true,"test":true},"features":[],"filenames":["/src/hello_world/target/debug/deps/frob_a-0123"],"executable":"/src/hello_world/target/debug/deps/frob_a-0123","fresh":false}`
	compilerMessageLine = `{"reason":"compiler-message","package_id":"hello_world 0.1.0 (path+file:///src/hello_world)","manifest_path":"/src/hello_world/Cargo.toml","target":{"kind":["bin"],"crate_types":["bin"],"name":"hello_world","src_path":"/src/hello_world/src/main.rs","edition":"2021","doctest":false,"test":true},"message":{"message":"unused variable: ` + "`x`" + `","code":{"code":"unused_variables","explanation":null},"level":"warning","spans":[],"children":[],"rendered":"warning: unused variable"}}`
	buildScriptLine = `{"reason":"build-script-executed","package_id":"hello_world 0.1.0 (path+file:///src/hello_world)","linked_libs":["z"],"linked_paths":["/usr/lib"],"cfgs":["has_feature"],"env":[["KEY","value"]],"out_dir":"/src/hello_world/target/debug/build/hello_world-abc/out"}`
	finishedOKLine     = `{"reason":"build-finished","success":true}`
	finishedFailedLine = `{"reason":"build-finished","success":false}`
)

func collect(t *testing.T, s *Stream) ([]Event, []error) {
	t.Helper()
	var events []Event
	var errs []error
	for {
		ev, err := s.Next()
		if errors.Is(err, io.EOF) {
			return events, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, ev)
	}
}

func TestStream_Classifies(t *testing.T) {
	input := strings.Join([]string{
		buildScriptLine,
		libArtifactLine,
		compilerMessageLine,
		testArtifactLine,
		finishedOKLine,
	}, "\n") + "\n"

	s := NewStream(strings.NewReader(input))
	events, errs := collect(t, s)
	require.Empty(t, errs)
	require.Len(t, events, 5)
	require.True(t, s.Finished())

	script, ok := events[0].(*BuildScriptOutput)
	require.True(t, ok)
	require.Equal(t, []string{"z"}, script.LinkedLibs)
	require.Equal(t, [][2]string{{"KEY", "value"}}, script.Env)
	require.Equal(t, "hello_world", script.PackageID.Name())

	lib, ok := events[1].(*ArtifactProduced)
	require.True(t, ok)
	require.Equal(t, model.TargetLib, lib.Artifact.Target.Class())
	require.False(t, lib.Artifact.HasExecutable())
	require.True(t, lib.Artifact.Fresh)
	require.Equal(t, "/src/hello_world/Cargo.toml", lib.Artifact.ManifestPath)

	msg, ok := events[2].(*CompilerMessage)
	require.True(t, ok)
	require.Equal(t, "hello_world", msg.Target.Name)
	require.Contains(t, string(msg.Payload), "unused variable")

	test, ok := events[3].(*ArtifactProduced)
	require.True(t, ok)
	require.Equal(t, "/src/hello_world/target/debug/deps/frob_a-0123", test.Artifact.Executable)
	require.True(t, test.Artifact.Profile.Test)

	finished, ok := events[4].(*BuildFinished)
	require.True(t, ok)
	require.True(t, finished.Success)
}

func TestStream_PreservesLineOrder(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		switch i % 3 {
		case 0:
			lines = append(lines, testArtifactLine)
		case 1:
			lines = append(lines, compilerMessageLine)
		default:
			lines = append(lines, buildScriptLine)
		}
	}
	lines = append(lines, finishedFailedLine)

	events, errs := collect(t, NewStream(strings.NewReader(strings.Join(lines, "\n"))))
	require.Empty(t, errs)
	require.Len(t, events, len(lines))
	for i, ev := range events {
		require.Equal(t, i+1, ev.Line(), "event %d out of order", i)
	}
	finished := events[len(events)-1].(*BuildFinished)
	require.False(t, finished.Success)
}

func TestStream_MalformedLinesDoNotAbort(t *testing.T) {
	input := strings.Join([]string{
		libArtifactLine,
		`this is not json`,
		`{"no_reason":true}`,
		`{"reason":"build-finished"}`,
		`{"reason":"compiler-artifact","package_id":"x"}`,
		`[1,2,3]`,
		testArtifactLine,
		finishedOKLine,
	}, "\n")

	events, errs := collect(t, NewStream(strings.NewReader(input)))
	require.Len(t, events, 3)
	require.Len(t, errs, 5)

	wantLines := []int{2, 3, 4, 5, 6}
	for i, err := range errs {
		var malformed *MalformedMessageError
		require.ErrorAs(t, err, &malformed)
		require.Equal(t, wantLines[i], malformed.Line)
	}
	require.Contains(t, errs[0].Error(), "line 2")
	require.Equal(t, 7, events[1].Line())
}

func TestStream_AbnormalTermination(t *testing.T) {
	s := NewStream(strings.NewReader(libArtifactLine + "\n" + testArtifactLine + "\n"))

	ev, err := s.Next()
	require.NoError(t, err)
	require.IsType(t, &ArtifactProduced{}, ev)

	_, err = s.Next()
	require.NoError(t, err)

	_, err = s.Next()
	require.ErrorIs(t, err, ErrAbnormalTermination)
	require.False(t, s.Finished())

	_, err = s.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestStream_EmptyInputIsAbnormal(t *testing.T) {
	_, err := NewStream(strings.NewReader("")).Next()
	require.ErrorIs(t, err, ErrAbnormalTermination)
}

func TestStream_StopsAtBuildFinished(t *testing.T) {
	input := finishedOKLine + "\n" + testArtifactLine + "\n"
	events, errs := collect(t, NewStream(strings.NewReader(input)))
	require.Empty(t, errs)
	require.Len(t, events, 1)
}

func TestStream_SkipsBlankLinesAndKeepsUnknownReasons(t *testing.T) {
	input := "\n   \n" + `{"reason":"timing-info","unit":{}}` + "\n" + finishedOKLine
	events, errs := collect(t, NewStream(strings.NewReader(input)))
	require.Empty(t, errs)
	require.Len(t, events, 2)

	unknown, ok := events[0].(*UnknownMessage)
	require.True(t, ok)
	require.Equal(t, Reason("timing-info"), unknown.Reason)
	require.Equal(t, 3, unknown.Line())
}

func TestStream_ReadError(t *testing.T) {
	reader := io.MultiReader(strings.NewReader(libArtifactLine+"\n"), iotest.ErrReader(fmt.Errorf("pipe broke")))
	s := NewStream(reader)

	_, err := s.Next()
	require.NoError(t, err)

	_, err = s.Next()
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAbnormalTermination)
	require.Contains(t, err.Error(), "pipe broke")

	_, err = s.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestStream_All(t *testing.T) {
	input := strings.Join([]string{libArtifactLine, "garbage", finishedOKLine}, "\n")

	var kinds []string
	for ev, err := range NewStream(strings.NewReader(input)).All() {
		if err != nil {
			kinds = append(kinds, "error")
			continue
		}
		kinds = append(kinds, fmt.Sprintf("%T", ev))
	}
	require.Equal(t, []string{"*cargomsg.ArtifactProduced", "error", "*cargomsg.BuildFinished"}, kinds)
}
