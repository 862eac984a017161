package topic

import "strings"

// Topic is a dot-separated node path or path pattern.
type Topic string

// Wildcards and separator.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments.
	WildcardMulti = "**"

	// Separator joins path segments.
	Separator = "."
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments splits the topic on the separator. The empty topic has none.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// Depth returns the number of segments.
func (t Topic) Depth() int {
	if t == "" {
		return 0
	}
	return strings.Count(string(t), Separator) + 1
}

// Parent drops the last segment. A single-segment topic has the empty
// topic as parent.
func (t Topic) Parent() Topic {
	i := strings.LastIndex(string(t), Separator)
	if i < 0 {
		return ""
	}
	return t[:i]
}

// Child appends a segment.
func (t Topic) Child(segment string) Topic {
	if t == "" {
		return Topic(segment)
	}
	return t + Separator + Topic(segment)
}

// Base returns the last segment.
func (t Topic) Base() string {
	i := strings.LastIndex(string(t), Separator)
	return string(t[i+1:])
}

// Ancestors returns every proper prefix of the topic, shortest first.
//
// Example: "a.b.c" -> ["a", "a.b"]
func (t Topic) Ancestors() []Topic {
	segs := t.Segments()
	if len(segs) < 2 {
		return nil
	}
	out := make([]Topic, 0, len(segs)-1)
	for i := 1; i < len(segs); i++ {
		out = append(out, Join(segs[:i]...))
	}
	return out
}

// HasPrefix reports whether prefix names the topic or one of its ancestors.
func (t Topic) HasPrefix(prefix Topic) bool {
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(string(t), string(prefix)) {
		return false
	}
	return len(t) == len(prefix) || t[len(prefix)] == '.'
}

// IsWildcard reports whether the topic contains a wildcard segment.
func (t Topic) IsWildcard() bool {
	for _, seg := range t.Segments() {
		if seg == WildcardSingle || seg == WildcardMulti {
			return true
		}
	}
	return false
}

// IsValid reports whether the topic is non-empty and has no empty segments.
// Wildcards are allowed; use IsPath to reject them.
func (t Topic) IsValid() bool {
	if t == "" {
		return false
	}
	for _, seg := range t.Segments() {
		if seg == "" || strings.TrimSpace(seg) != seg {
			return false
		}
		if strings.Contains(seg, WildcardSingle) && seg != WildcardSingle && seg != WildcardMulti {
			return false
		}
	}
	return true
}

// IsPath reports whether the topic is a valid concrete path.
func (t Topic) IsPath() bool {
	return t.IsValid() && !t.IsWildcard()
}

// Matches reports whether the topic matches pattern.
func (t Topic) Matches(pattern Topic) bool {
	return match(t.Segments(), pattern.Segments())
}

// match walks path and pattern segments together. A "**" tries every
// possible number of consumed path segments.
func match(path, pattern []string) bool {
	for len(pattern) > 0 {
		head := pattern[0]
		if head == WildcardMulti {
			rest := pattern[1:]
			for i := 0; i <= len(path); i++ {
				if match(path[i:], rest) {
					return true
				}
			}
			return false
		}
		if len(path) == 0 {
			return false
		}
		if head != WildcardSingle && head != path[0] {
			return false
		}
		path, pattern = path[1:], pattern[1:]
	}
	return len(path) == 0
}

// Join builds a topic from segments.
func Join(segments ...string) Topic {
	return Topic(strings.Join(segments, Separator))
}
