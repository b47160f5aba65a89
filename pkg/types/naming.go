package types

import "fmt"

// ============================================================================
//                              名称校验结果
// ============================================================================

// 名称长度上限
const (
	// NodeNameMaxLength 节点名称最大长度
	NodeNameMaxLength = 255

	// TopicNameMaxLength 完整话题名称最大长度
	TopicNameMaxLength = 255

	// NamespaceMaxLength 命名空间最大长度（为 "/" 和至少一个名称字符预留空间）
	NamespaceMaxLength = TopicNameMaxLength - 2
)

// ValidationCode 校验结果码约束
//
// 零值必须表示"有效"。
type ValidationCode interface {
	~int
	String() string
}

// Validation 名称校验结果
//
// Code 为零值表示有效；否则 InvalidIndex 指向第一个违规字符。
type Validation[C ValidationCode] struct {
	Code         C
	InvalidIndex int
}

// Valid 是否有效
func (v Validation[C]) Valid() bool {
	var zero C
	return v.Code == zero
}

// Reason 返回人类可读的违规原因，有效时返回空串
func (v Validation[C]) Reason() string {
	if v.Valid() {
		return ""
	}
	return v.Code.String()
}

// ----------------------------------------------------------------------------
// 节点名称
// ----------------------------------------------------------------------------

// NodeNameValidity 节点名称校验结果码
type NodeNameValidity int

const (
	// NodeNameValid 有效
	NodeNameValid NodeNameValidity = iota
	// NodeNameInvalidIsEmptyString 空串
	NodeNameInvalidIsEmptyString
	// NodeNameInvalidContainsUnallowedCharacters 含非法字符
	NodeNameInvalidContainsUnallowedCharacters
	// NodeNameInvalidStartsWithNumber 以数字开头
	NodeNameInvalidStartsWithNumber
	// NodeNameInvalidTooLong 过长
	NodeNameInvalidTooLong
)

// String 返回违规原因
func (v NodeNameValidity) String() string {
	switch v {
	case NodeNameValid:
		return "valid"
	case NodeNameInvalidIsEmptyString:
		return "node name must not be empty"
	case NodeNameInvalidContainsUnallowedCharacters:
		return "node name must not contain characters other than alphanumerics or '_'"
	case NodeNameInvalidStartsWithNumber:
		return "node name must not start with a number"
	case NodeNameInvalidTooLong:
		return fmt.Sprintf("node name length should not exceed '%d'", NodeNameMaxLength)
	default:
		return fmt.Sprintf("unknown node name validation result %d", int(v))
	}
}

// NodeNameValidation 节点名称校验结果
type NodeNameValidation = Validation[NodeNameValidity]

// ----------------------------------------------------------------------------
// 命名空间
// ----------------------------------------------------------------------------

// NamespaceValidity 命名空间校验结果码
type NamespaceValidity int

const (
	// NamespaceValid 有效
	NamespaceValid NamespaceValidity = iota
	// NamespaceInvalidIsEmptyString 空串
	NamespaceInvalidIsEmptyString
	// NamespaceInvalidNotAbsolute 未以 '/' 开头
	NamespaceInvalidNotAbsolute
	// NamespaceInvalidEndsWithForwardSlash 以 '/' 结尾
	NamespaceInvalidEndsWithForwardSlash
	// NamespaceInvalidContainsUnallowedCharacters 含非法字符
	NamespaceInvalidContainsUnallowedCharacters
	// NamespaceInvalidContainsRepeatedForwardSlash 含连续 '/'
	NamespaceInvalidContainsRepeatedForwardSlash
	// NamespaceInvalidNameTokenStartsWithNumber 某段以数字开头
	NamespaceInvalidNameTokenStartsWithNumber
	// NamespaceInvalidTooLong 过长
	NamespaceInvalidTooLong
)

// String 返回违规原因
func (v NamespaceValidity) String() string {
	switch v {
	case NamespaceValid:
		return "valid"
	case NamespaceInvalidIsEmptyString:
		return "namespace must not be empty"
	case NamespaceInvalidNotAbsolute:
		return "namespace must be absolute, it must lead with a '/'"
	case NamespaceInvalidEndsWithForwardSlash:
		return "namespace must not end with a '/', unless only a '/'"
	case NamespaceInvalidContainsUnallowedCharacters:
		return "namespace must not contain characters other than alphanumerics, '_', or '/'"
	case NamespaceInvalidContainsRepeatedForwardSlash:
		return "namespace must not contain repeated '/'"
	case NamespaceInvalidNameTokenStartsWithNumber:
		return "namespace must not have a token that starts with a number"
	case NamespaceInvalidTooLong:
		return fmt.Sprintf("namespace should not exceed '%d'", NamespaceMaxLength)
	default:
		return fmt.Sprintf("unknown namespace validation result %d", int(v))
	}
}

// NamespaceValidation 命名空间校验结果
type NamespaceValidation = Validation[NamespaceValidity]

// ----------------------------------------------------------------------------
// 完整话题名称（展开后的绝对名称）
// ----------------------------------------------------------------------------

// FullTopicNameValidity 完整话题名称校验结果码
type FullTopicNameValidity int

const (
	// FullTopicNameValid 有效
	FullTopicNameValid FullTopicNameValidity = iota
	// FullTopicNameInvalidIsEmptyString 空串
	FullTopicNameInvalidIsEmptyString
	// FullTopicNameInvalidNotAbsolute 未以 '/' 开头
	FullTopicNameInvalidNotAbsolute
	// FullTopicNameInvalidEndsWithForwardSlash 以 '/' 结尾
	FullTopicNameInvalidEndsWithForwardSlash
	// FullTopicNameInvalidContainsUnallowedCharacters 含非法字符
	FullTopicNameInvalidContainsUnallowedCharacters
	// FullTopicNameInvalidContainsRepeatedForwardSlash 含连续 '/'
	FullTopicNameInvalidContainsRepeatedForwardSlash
	// FullTopicNameInvalidNameTokenStartsWithNumber 某段以数字开头
	FullTopicNameInvalidNameTokenStartsWithNumber
	// FullTopicNameInvalidTooLong 过长
	FullTopicNameInvalidTooLong
)

// String 返回违规原因
func (v FullTopicNameValidity) String() string {
	switch v {
	case FullTopicNameValid:
		return "valid"
	case FullTopicNameInvalidIsEmptyString:
		return "topic name must not be empty"
	case FullTopicNameInvalidNotAbsolute:
		return "topic name must be absolute, it must lead with a '/'"
	case FullTopicNameInvalidEndsWithForwardSlash:
		return "topic name must not end with a '/'"
	case FullTopicNameInvalidContainsUnallowedCharacters:
		return "topic name must not contain characters other than alphanumerics, '_', or '/'"
	case FullTopicNameInvalidContainsRepeatedForwardSlash:
		return "topic name must not contain repeated '/'"
	case FullTopicNameInvalidNameTokenStartsWithNumber:
		return "topic name must not have a token that starts with a number"
	case FullTopicNameInvalidTooLong:
		return fmt.Sprintf("topic name should not exceed '%d'", TopicNameMaxLength)
	default:
		return fmt.Sprintf("unknown topic name validation result %d", int(v))
	}
}

// FullTopicNameValidation 完整话题名称校验结果
type FullTopicNameValidation = Validation[FullTopicNameValidity]

// ----------------------------------------------------------------------------
// 相对话题名称（展开前，允许 '~' 和 {替换项}）
// ----------------------------------------------------------------------------

// TopicNameValidity 展开前话题名称校验结果码
type TopicNameValidity int

const (
	// TopicNameValid 有效
	TopicNameValid TopicNameValidity = iota
	// TopicNameInvalidIsEmptyString 空串
	TopicNameInvalidIsEmptyString
	// TopicNameInvalidEndsWithForwardSlash 以 '/' 结尾
	TopicNameInvalidEndsWithForwardSlash
	// TopicNameInvalidContainsUnallowedCharacters 含非法字符
	TopicNameInvalidContainsUnallowedCharacters
	// TopicNameInvalidNameTokenStartsWithNumber 某段以数字开头
	TopicNameInvalidNameTokenStartsWithNumber
	// TopicNameInvalidUnmatchedCurlyBrace 花括号不配对
	TopicNameInvalidUnmatchedCurlyBrace
	// TopicNameInvalidMisplacedTilde '~' 不在首位
	TopicNameInvalidMisplacedTilde
	// TopicNameInvalidTildeNotFollowedByForwardSlash '~' 后不是 '/'
	TopicNameInvalidTildeNotFollowedByForwardSlash
	// TopicNameInvalidSubstitutionContainsUnallowedCharacters 替换项含非法字符
	TopicNameInvalidSubstitutionContainsUnallowedCharacters
	// TopicNameInvalidSubstitutionStartsWithNumber 替换项以数字开头
	TopicNameInvalidSubstitutionStartsWithNumber
)

// String 返回违规原因
func (v TopicNameValidity) String() string {
	switch v {
	case TopicNameValid:
		return "valid"
	case TopicNameInvalidIsEmptyString:
		return "topic name must not be empty string"
	case TopicNameInvalidEndsWithForwardSlash:
		return "topic name must not end with a forward slash"
	case TopicNameInvalidContainsUnallowedCharacters:
		return "topic name must not contain characters other than alphanumerics, '_', '~', '{', or '}'"
	case TopicNameInvalidNameTokenStartsWithNumber:
		return "topic name token must not start with a number"
	case TopicNameInvalidUnmatchedCurlyBrace:
		return "topic name must not have unmatched (unbalanced) curly braces '{}'"
	case TopicNameInvalidMisplacedTilde:
		return "topic name must not have tilde '~' unless it is the first character"
	case TopicNameInvalidTildeNotFollowedByForwardSlash:
		return "topic name must not have a tilde '~' that is not followed by a forward slash '/'"
	case TopicNameInvalidSubstitutionContainsUnallowedCharacters:
		return "topic name substitution must not contain characters other than alphanumerics or '_'"
	case TopicNameInvalidSubstitutionStartsWithNumber:
		return "topic name substitution must not start with a numeric"
	default:
		return fmt.Sprintf("unknown topic name validation result %d", int(v))
	}
}

// TopicNameValidation 展开前话题名称校验结果
type TopicNameValidation = Validation[TopicNameValidity]
