package config

import "github.com/sblinch/kdl-go/document"

func applyIndexNode(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		if cn.Name == nil {
			continue
		}
		switch cn.Name.NodeNameString() {
		case "follow_symlinks":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.FollowSymlinks = b
			}
		case "respect_gitignore":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.RespectGitignore = b
			}
		case "watch_mode":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Index.WatchMode = b
			}
		case "watch_debounce_ms":
			if v, ok := firstIntArg(cn); ok {
				cfg.Index.WatchDebounceMs = v
			}
		case "watch_tick_ms":
			if v, ok := firstIntArg(cn); ok {
				cfg.Index.WatchTickMs = v
			}
		case "max_file_size":
			if v, ok := firstIntArg(cn); ok {
				cfg.Index.MaxFileSize = int64(v)
			}
		}
	}
}

func applySearchNode(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		if cn.Name == nil {
			continue
		}
		switch cn.Name.NodeNameString() {
		case "max_results":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.MaxResults = v
			}
		case "max_typos":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.MaxTypos = uint16(v)
			}
		case "max_threads":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.MaxThreads = v
			}
		}
	}
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	b, ok := n.Arguments[0].Value.(bool)
	return b, ok
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

// kdlStringArgs collects string values either from a node's inline
// arguments (`include "a" "b"`) or, when absent, from its children
// (`include { "a"; "b" }`): each child contributes its first string
// argument, or its node name when it has none.
func kdlStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, child := range n.Children {
		if s, ok := firstStringArg(child); ok {
			out = append(out, s)
		} else if child.Name != nil {
			if s, ok := child.Name.Value.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
