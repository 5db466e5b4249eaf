// Package urlpattern expands the one `[[a-b]]` range pattern a URL
// may carry into the sequence of URLs it denotes. This is an external
// helper to the two download cores (§1); its job is turning one
// user-supplied URL into the list of URLs the HTTP downloader fetches.
package urlpattern

import (
	"fmt"
	"strconv"
	"strings"

	"fetchkit/internal/errs"
)

const (
	open     = "[["
	closeTok = "]]"
)

// Expand returns the sequence of URLs denoted by a single `[[a-b]]`
// substitution group, or []string{url} unchanged if url carries none.
// A second group is unsupported and returns errs.UserInputError: the
// source this spec was distilled from only handles one group per URL
// and leaves multi-group semantics unspecified.
func Expand(url string) ([]string, error) {
	start := strings.Index(url, open)
	if start == -1 {
		return []string{url}, nil
	}
	end := strings.Index(url[start:], closeTok)
	if end == -1 {
		return nil, fmt.Errorf("%w: unterminated pattern in %q", errs.UserInputError, url)
	}
	end += start

	body := url[start+len(open) : end]
	if strings.Contains(url[end+len(closeTok):], open) {
		return nil, fmt.Errorf("%w: multiple [[a-b]] groups in %q are unsupported", errs.UserInputError, url)
	}

	values, err := expandBody(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v in %q", errs.UserInputError, err, url)
	}

	prefix, suffix := url[:start], url[end+len(closeTok):]
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = prefix + v + suffix
	}
	return out, nil
}

func expandBody(body string) ([]string, error) {
	a, b, ok := strings.Cut(body, "-")
	if !ok {
		return nil, fmt.Errorf("pattern %q has no '-' separator", body)
	}

	if ai, aerr := strconv.Atoi(a); aerr == nil {
		bi, berr := strconv.Atoi(b)
		if berr != nil {
			return nil, fmt.Errorf("pattern %q mixes an integer and a non-integer bound", body)
		}
		if ai > bi {
			return nil, fmt.Errorf("pattern %q has a descending integer range", body)
		}
		out := make([]string, 0, bi-ai+1)
		for i := ai; i <= bi; i++ {
			out = append(out, strconv.Itoa(i))
		}
		return out, nil
	}

	if len(a) == 1 && len(b) == 1 {
		if a[0] > b[0] {
			return nil, fmt.Errorf("pattern %q has a descending character range", body)
		}
		out := make([]string, 0, int(b[0]-a[0])+1)
		for c := a[0]; c <= b[0]; c++ {
			out = append(out, string(c))
		}
		return out, nil
	}

	return nil, fmt.Errorf("pattern %q is neither an integer nor a single-character range", body)
}
