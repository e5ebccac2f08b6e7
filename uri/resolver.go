package uri

import (
	"strings"

	"httpwire/lib/ds/stack"

	"github.com/pkg/errors"
)

// Resolve resolves ref against base.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.2
func Resolve(base URI, ref URI) (out URI, err error) {
	if base.IsRelativeRef() {
		return URI{}, errors.New("base cannot be a relative ref")
	}

	out = ref

	defer func() { out.Path = removeDotSegments(out.Path) }()

	if out.Scheme != "" {
		return out, nil
	}
	out.Scheme = base.Scheme

	if out.Authority != nil {
		return out, nil
	}
	out.Authority = base.Authority

	if out.Path != "" {
		if !strings.HasPrefix(out.Path, "/") {
			out.Path = mergePath(base, out)
		}
		return out, nil
	}
	out.Path = base.Path

	if out.Query != nil {
		return out, nil
	}
	out.Query = base.Query

	return out, nil
}

// ResolveReference parses rawRef and resolves it against base.
func ResolveReference(base URI, rawRef string) (URI, error) {
	ref, err := Parse(rawRef)
	if err != nil {
		return URI{}, errors.Wrap(err, "parsing reference")
	}

	return Resolve(base, ref)
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.3
func mergePath(base, ref URI) string {
	if base.Authority != nil && base.Path == "" {
		return "/" + ref.Path
	}

	if idx := strings.LastIndexByte(base.Path, '/'); idx >= 0 {
		return base.Path[:idx+1] + ref.Path
	}

	return ref.Path
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.4
func removeDotSegments(path string) string {
	out := stack.New[string](0)

	for len(path) > 0 {
		var found bool
		if path, found = strings.CutPrefix(path, "../"); found {
			continue
		}
		if path, found = strings.CutPrefix(path, "./"); found {
			continue
		}

		if path, found = strings.CutPrefix(path, "/./"); found {
			path = "/" + path
			continue
		} else if path == "/." {
			path = "/"
			continue
		}

		if path, found = strings.CutPrefix(path, "/../"); found {
			out.Pop()
			path = "/" + path
			continue
		} else if path == "/.." {
			out.Pop()
			path = "/"
			continue
		}

		if path == ".." || path == "." {
			break
		}

		// Move the first path segment to the output, including the
		// initial "/" (if any), up to but not including the next "/".
		idx := strings.IndexByte(path[1:], '/') + 1
		if idx <= 0 {
			idx = len(path)
		}

		out.Push(path[:idx])
		path = path[idx:]
	}

	return strings.Join(out.Data(), "")
}
