package build

import (
	"context"
	"fmt"

	"github.com/perfgo/seacan/introspect"
	"github.com/perfgo/seacan/spec"
)

// DiscoverTests compiles a test request and lists the tests in the
// artifacts whose target matches the request's type selection. Listing
// failures are reported in the introspection result, not as an error.
func DiscoverTests(ctx context.Context, compiler *Compiler, introspector *introspect.Introspector, req *Request, name spec.NameSpec) (*introspect.Result, *Result, error) {
	if req.Mode() != ModeTest {
		return nil, nil, fmt.Errorf("%w: test discovery needs a test request, got %s", ErrInvalidRequest, req.Mode())
	}

	built, err := compiler.Compile(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return introspector.Discover(ctx, built.Artifacts, name, req.Types()), built, nil
}
