package introspect

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/perfgo/seacan/model"
)

func TestParseListing(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []model.TestFn
	}{
		{
			name:   "empty",
			output: "",
			want:   nil,
		},
		{
			name:   "terse",
			output: "test_in_lib: test\nmodule::test_in_module: test\n",
			want: []model.TestFn{
				{Name: "test_in_lib", Kind: model.TestFnTest},
				{Name: "module::test_in_module", Kind: model.TestFnTest},
			},
		},
		{
			name:   "benches",
			output: "bench_a: bench\nbench_b: benchmark\n",
			want: []model.TestFn{
				{Name: "bench_a", Kind: model.TestFnBench},
				{Name: "bench_b", Kind: model.TestFnBench},
			},
		},
		{
			name:   "pretty summary and blank lines",
			output: "a: test\n\nb: test\n\n2 tests, 0 benchmarks\n",
			want: []model.TestFn{
				{Name: "a", Kind: model.TestFnTest},
				{Name: "b", Kind: model.TestFnTest},
			},
		},
		{
			name:   "singular summary",
			output: "a: test\n1 test, 1 benchmark\n",
			want:   []model.TestFn{{Name: "a", Kind: model.TestFnTest}},
		},
		{
			name:   "unknown kind skipped",
			output: "a: test\nsrc/lib.rs - foo (line 3): doctest\nb: test\n",
			want: []model.TestFn{
				{Name: "a", Kind: model.TestFnTest},
				{Name: "b", Kind: model.TestFnTest},
			},
		},
		{
			name:   "name containing separator",
			output: "weird: name: test\r\n",
			want:   []model.TestFn{{Name: "weird: name", Kind: model.TestFnTest}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseListing(zerolog.Nop(), strings.NewReader(tt.output))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseListing_Unrecognized(t *testing.T) {
	for _, output := range []string{
		"a: test\nrunning 2 tests\n",
		": test\n",
		"a: test with spaces\n",
	} {
		_, err := ParseListing(zerolog.Nop(), strings.NewReader(output))
		require.ErrorIs(t, err, ErrUnrecognizedLine, output)
	}

	_, err := ParseListing(zerolog.Nop(), strings.NewReader("a: test\nb\n"))
	require.ErrorContains(t, err, "line 2")
}
