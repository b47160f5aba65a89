package naming

import (
	"strings"

	"github.com/dep2p/go-nodecore/pkg/types"
)

// FullyQualifiedName 拼接节点完整限定名
func FullyQualifiedName(namespace, node string) string {
	if namespace == "/" || namespace == "" {
		return "/" + node
	}
	return namespace + "/" + node
}

// Expand 将话题或服务名称展开为绝对名称
//
// 展开规则：
//   - "~" 替换为节点完整限定名
//   - {node} 替换为节点名，{ns} 与 {namespace} 替换为命名空间
//   - 相对名称前置命名空间
//
// 错误为 *types.StatusError：名称无效时为 StatusTopicNameInvalid，
// 替换项未知时为 StatusUnknownSubstitution。
func Expand(name, node, namespace string) (string, error) {
	if v := ValidateTopicName(name); !v.Valid() {
		return "", types.NewStatusError(types.StatusTopicNameInvalid,
			"topic name %q is invalid at index %d: %s", name, v.InvalidIndex, v.Reason())
	}
	if v := ValidateNodeName(node); !v.Valid() {
		return "", types.NewStatusError(types.StatusNodeInvalidName,
			"node name %q is invalid: %s", node, v.Reason())
	}
	if v := ValidateNamespace(namespace); !v.Valid() {
		return "", types.NewStatusError(types.StatusNodeInvalidNamespace,
			"node namespace %q is invalid: %s", namespace, v.Reason())
	}

	if name[0] == '/' && !strings.ContainsRune(name, '{') {
		return name, nil
	}

	var b strings.Builder
	b.Grow(len(name) + len(namespace) + len(node) + 2)

	rest := name
	if rest[0] == '~' {
		b.WriteString(FullyQualifiedName(namespace, node))
		rest = rest[1:]
	}

	for len(rest) > 0 {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		closeIdx := strings.IndexByte(rest[open:], '}')
		// ValidateTopicName 已保证花括号配对
		key := rest[open+1 : open+closeIdx]
		switch key {
		case "node":
			b.WriteString(node)
		case "ns", "namespace":
			b.WriteString(namespace)
		default:
			return "", types.NewStatusError(types.StatusUnknownSubstitution,
				"unknown substitution %q in %q", key, name)
		}
		rest = rest[open+closeIdx+1:]
	}

	expanded := b.String()
	if expanded[0] != '/' {
		expanded = FullyQualifiedName(namespace, expanded)
	}
	// 根命名空间 "/" 替换到开头时会产生 "//"
	if strings.HasPrefix(expanded, "//") {
		expanded = expanded[1:]
	}
	return expanded, nil
}

// ResolveRequest 名称解析请求
type ResolveRequest struct {
	Name       string
	Node       string
	Namespace  string
	Remappings []types.RemapRule
	IsService  bool
	OnlyExpand bool
}

// Resolve 展开名称，按需应用重映射，并校验最终的绝对名称
func Resolve(req ResolveRequest) (string, error) {
	expanded, err := Expand(req.Name, req.Node, req.Namespace)
	if err != nil {
		return "", err
	}

	resolved := expanded
	if !req.OnlyExpand {
		resolved, err = remap(expanded, req)
		if err != nil {
			return "", err
		}
	}

	if v := ValidateFullTopicName(resolved); !v.Valid() {
		code := types.StatusTopicNameInvalid
		if req.IsService {
			code = types.StatusServiceNameInvalid
		}
		return "", types.NewStatusError(code,
			"resolved name %q is invalid at index %d: %s", resolved, v.InvalidIndex, v.Reason())
	}
	return resolved, nil
}

// remap 按顺序匹配重映射规则，首条命中生效
func remap(expanded string, req ResolveRequest) (string, error) {
	for _, rule := range req.Remappings {
		if !rule.Kind.Applies(req.IsService) {
			continue
		}
		from, err := Expand(rule.From, req.Node, req.Namespace)
		if err != nil {
			return "", err
		}
		if from != expanded {
			continue
		}
		return Expand(rule.To, req.Node, req.Namespace)
	}
	return expanded, nil
}
