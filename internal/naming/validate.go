// Package naming 实现节点名称、命名空间与话题名称的校验和展开
//
// 本包是名称校验协作方的默认实现：
//   - ValidateNodeName / ValidateNamespace：返回违规原因和违规字符位置
//   - ValidateTopicName：校验展开前的名称（允许 '~' 与 {替换项}）
//   - ValidateFullTopicName：校验展开后的绝对名称
//   - Expand / Resolve：展开相对名称并应用重映射规则
package naming

import (
	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/types"
)

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNameChar(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_'
}

// ============================================================================
//                              节点名称
// ============================================================================

// ValidateNodeName 校验节点名称
//
// 规则：非空；仅含字母、数字和 '_'；不以数字开头；长度不超过 255。
func ValidateNodeName(name string) types.NodeNameValidation {
	if len(name) == 0 {
		return types.NodeNameValidation{Code: types.NodeNameInvalidIsEmptyString}
	}
	for i := 0; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return types.NodeNameValidation{
				Code:         types.NodeNameInvalidContainsUnallowedCharacters,
				InvalidIndex: i,
			}
		}
	}
	if isDigit(name[0]) {
		return types.NodeNameValidation{Code: types.NodeNameInvalidStartsWithNumber}
	}
	if len(name) > types.NodeNameMaxLength {
		return types.NodeNameValidation{
			Code:         types.NodeNameInvalidTooLong,
			InvalidIndex: types.NodeNameMaxLength - 1,
		}
	}
	return types.NodeNameValidation{}
}

// ============================================================================
//                              完整话题名称
// ============================================================================

// ValidateFullTopicName 校验展开后的绝对话题名称
func ValidateFullTopicName(name string) types.FullTopicNameValidation {
	n := len(name)
	if n == 0 {
		return types.FullTopicNameValidation{Code: types.FullTopicNameInvalidIsEmptyString}
	}
	if name[0] != '/' {
		return types.FullTopicNameValidation{Code: types.FullTopicNameInvalidNotAbsolute}
	}
	if n > 1 && name[n-1] == '/' {
		return types.FullTopicNameValidation{
			Code:         types.FullTopicNameInvalidEndsWithForwardSlash,
			InvalidIndex: n - 1,
		}
	}
	for i := 0; i < n; i++ {
		if !isNameChar(name[i]) && name[i] != '/' {
			return types.FullTopicNameValidation{
				Code:         types.FullTopicNameInvalidContainsUnallowedCharacters,
				InvalidIndex: i,
			}
		}
	}
	for i := 0; i < n-1; i++ {
		if name[i] != '/' {
			continue
		}
		if name[i+1] == '/' {
			return types.FullTopicNameValidation{
				Code:         types.FullTopicNameInvalidContainsRepeatedForwardSlash,
				InvalidIndex: i + 1,
			}
		}
		if isDigit(name[i+1]) {
			return types.FullTopicNameValidation{
				Code:         types.FullTopicNameInvalidNameTokenStartsWithNumber,
				InvalidIndex: i + 1,
			}
		}
	}
	if n > types.TopicNameMaxLength {
		return types.FullTopicNameValidation{
			Code:         types.FullTopicNameInvalidTooLong,
			InvalidIndex: types.TopicNameMaxLength - 1,
		}
	}
	return types.FullTopicNameValidation{}
}

// ============================================================================
//                              命名空间
// ============================================================================

// ValidateNamespace 校验命名空间
//
// "/" 总是有效；其余按完整话题名称规则校验，且长度不超过 253。
func ValidateNamespace(namespace string) types.NamespaceValidation {
	if namespace == "/" {
		return types.NamespaceValidation{}
	}

	full := ValidateFullTopicName(namespace)
	if !full.Valid() {
		var code types.NamespaceValidity
		switch full.Code {
		case types.FullTopicNameInvalidIsEmptyString:
			code = types.NamespaceInvalidIsEmptyString
		case types.FullTopicNameInvalidNotAbsolute:
			code = types.NamespaceInvalidNotAbsolute
		case types.FullTopicNameInvalidEndsWithForwardSlash:
			code = types.NamespaceInvalidEndsWithForwardSlash
		case types.FullTopicNameInvalidContainsUnallowedCharacters:
			code = types.NamespaceInvalidContainsUnallowedCharacters
		case types.FullTopicNameInvalidContainsRepeatedForwardSlash:
			code = types.NamespaceInvalidContainsRepeatedForwardSlash
		case types.FullTopicNameInvalidNameTokenStartsWithNumber:
			code = types.NamespaceInvalidNameTokenStartsWithNumber
		case types.FullTopicNameInvalidTooLong:
			code = types.NamespaceInvalidTooLong
		}
		return types.NamespaceValidation{Code: code, InvalidIndex: full.InvalidIndex}
	}

	if len(namespace) > types.NamespaceMaxLength {
		return types.NamespaceValidation{
			Code:         types.NamespaceInvalidTooLong,
			InvalidIndex: types.NamespaceMaxLength - 1,
		}
	}
	return types.NamespaceValidation{}
}

// ============================================================================
//                              展开前话题名称
// ============================================================================

// ValidateTopicName 校验展开前的话题名称
//
// 允许相对名称、首位的 '~'（后接 '/'）以及 {替换项}。
func ValidateTopicName(name string) types.TopicNameValidation {
	n := len(name)
	if n == 0 {
		return types.TopicNameValidation{Code: types.TopicNameInvalidIsEmptyString}
	}
	if isDigit(name[0]) {
		return types.TopicNameValidation{Code: types.TopicNameInvalidNameTokenStartsWithNumber}
	}
	if name[n-1] == '/' {
		return types.TopicNameValidation{
			Code:         types.TopicNameInvalidEndsWithForwardSlash,
			InvalidIndex: n - 1,
		}
	}

	inSubstitution := false
	substitutionStart := 0
	for i := 0; i < n; i++ {
		c := name[i]
		if inSubstitution {
			switch {
			case c == '{':
				return types.TopicNameValidation{Code: types.TopicNameInvalidUnmatchedCurlyBrace, InvalidIndex: i}
			case c == '}':
				inSubstitution = false
				if i > substitutionStart+1 && isDigit(name[substitutionStart+1]) {
					return types.TopicNameValidation{
						Code:         types.TopicNameInvalidSubstitutionStartsWithNumber,
						InvalidIndex: substitutionStart + 1,
					}
				}
			case !isNameChar(c):
				return types.TopicNameValidation{
					Code:         types.TopicNameInvalidSubstitutionContainsUnallowedCharacters,
					InvalidIndex: i,
				}
			}
			continue
		}

		switch {
		case c == '{':
			inSubstitution = true
			substitutionStart = i
		case c == '}':
			return types.TopicNameValidation{Code: types.TopicNameInvalidUnmatchedCurlyBrace, InvalidIndex: i}
		case isNameChar(c) || c == '/':
		case c == '~':
			if i != 0 {
				return types.TopicNameValidation{Code: types.TopicNameInvalidMisplacedTilde, InvalidIndex: i}
			}
		default:
			return types.TopicNameValidation{
				Code:         types.TopicNameInvalidContainsUnallowedCharacters,
				InvalidIndex: i,
			}
		}
	}
	if inSubstitution {
		return types.TopicNameValidation{
			Code:         types.TopicNameInvalidUnmatchedCurlyBrace,
			InvalidIndex: substitutionStart,
		}
	}

	if name[0] == '~' && n > 1 && name[1] != '/' {
		return types.TopicNameValidation{
			Code:         types.TopicNameInvalidTildeNotFollowedByForwardSlash,
			InvalidIndex: 1,
		}
	}
	for i := 0; i < n-1; i++ {
		if name[i] == '/' && isDigit(name[i+1]) {
			return types.TopicNameValidation{
				Code:         types.TopicNameInvalidNameTokenStartsWithNumber,
				InvalidIndex: i + 1,
			}
		}
	}
	return types.TopicNameValidation{}
}

// ============================================================================
//                              校验协作方
// ============================================================================

// Validator 默认名称校验协作方
type Validator struct{}

var _ interfaces.NameValidator = Validator{}

// NewValidator 创建校验协作方
func NewValidator() Validator {
	return Validator{}
}

// ValidateNodeName 实现 interfaces.NameValidator
func (Validator) ValidateNodeName(name string) (types.NodeNameValidation, error) {
	return ValidateNodeName(name), nil
}

// ValidateNamespace 实现 interfaces.NameValidator
func (Validator) ValidateNamespace(namespace string) (types.NamespaceValidation, error) {
	return ValidateNamespace(namespace), nil
}
