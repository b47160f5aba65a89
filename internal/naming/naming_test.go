package naming

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-nodecore/pkg/types"
)

// ============================================================================
//                              节点名称
// ============================================================================

func TestValidateNodeName(t *testing.T) {
	assert.True(t, ValidateNodeName("talker").Valid())
	assert.True(t, ValidateNodeName("talker_2").Valid())

	v := ValidateNodeName("")
	assert.Equal(t, types.NodeNameInvalidIsEmptyString, v.Code)

	v = ValidateNodeName("bad name!")
	assert.Equal(t, types.NodeNameInvalidContainsUnallowedCharacters, v.Code)
	assert.Equal(t, 3, v.InvalidIndex, "应指向空格")
	assert.Contains(t, v.Reason(), "alphanumerics")

	v = ValidateNodeName("2fast")
	assert.Equal(t, types.NodeNameInvalidStartsWithNumber, v.Code)
	assert.Equal(t, 0, v.InvalidIndex)

	v = ValidateNodeName(strings.Repeat("a", types.NodeNameMaxLength+1))
	assert.Equal(t, types.NodeNameInvalidTooLong, v.Code)
	assert.Equal(t, types.NodeNameMaxLength-1, v.InvalidIndex)
}

// ============================================================================
//                              命名空间
// ============================================================================

func TestValidateNamespace(t *testing.T) {
	assert.True(t, ValidateNamespace("/").Valid())
	assert.True(t, ValidateNamespace("/robot1/arm").Valid())

	v := ValidateNamespace("")
	assert.Equal(t, types.NamespaceInvalidIsEmptyString, v.Code)

	v = ValidateNamespace("not/absolute")
	assert.Equal(t, types.NamespaceInvalidNotAbsolute, v.Code)
	assert.Equal(t, 0, v.InvalidIndex)

	v = ValidateNamespace("/trailing/")
	assert.Equal(t, types.NamespaceInvalidEndsWithForwardSlash, v.Code)
	assert.Equal(t, 9, v.InvalidIndex)

	v = ValidateNamespace("/a-b")
	assert.Equal(t, types.NamespaceInvalidContainsUnallowedCharacters, v.Code)
	assert.Equal(t, 2, v.InvalidIndex)

	v = ValidateNamespace("/a//b")
	assert.Equal(t, types.NamespaceInvalidContainsRepeatedForwardSlash, v.Code)
	assert.Equal(t, 3, v.InvalidIndex)

	v = ValidateNamespace("/a/1b")
	assert.Equal(t, types.NamespaceInvalidNameTokenStartsWithNumber, v.Code)
	assert.Equal(t, 3, v.InvalidIndex)

	v = ValidateNamespace("/" + strings.Repeat("a", types.NamespaceMaxLength))
	assert.Equal(t, types.NamespaceInvalidTooLong, v.Code)
}

// ============================================================================
//                              话题名称
// ============================================================================

func TestValidateTopicName(t *testing.T) {
	for _, name := range []string{"chatter", "/chatter", "~/out", "~", "{node}/out", "a/b_c"} {
		assert.True(t, ValidateTopicName(name).Valid(), name)
	}

	assert.Equal(t, types.TopicNameInvalidIsEmptyString, ValidateTopicName("").Code)
	assert.Equal(t, types.TopicNameInvalidEndsWithForwardSlash, ValidateTopicName("a/").Code)
	assert.Equal(t, types.TopicNameInvalidNameTokenStartsWithNumber, ValidateTopicName("1a").Code)
	assert.Equal(t, types.TopicNameInvalidMisplacedTilde, ValidateTopicName("a~").Code)
	assert.Equal(t, types.TopicNameInvalidTildeNotFollowedByForwardSlash, ValidateTopicName("~a").Code)
	assert.Equal(t, types.TopicNameInvalidUnmatchedCurlyBrace, ValidateTopicName("{node").Code)
	assert.Equal(t, types.TopicNameInvalidUnmatchedCurlyBrace, ValidateTopicName("node}").Code)
	assert.Equal(t, types.TopicNameInvalidSubstitutionContainsUnallowedCharacters, ValidateTopicName("{no-de}").Code)
	assert.Equal(t, types.TopicNameInvalidSubstitutionStartsWithNumber, ValidateTopicName("{1x}").Code)
	assert.Equal(t, types.TopicNameInvalidContainsUnallowedCharacters, ValidateTopicName("a b").Code)
	assert.Equal(t, types.TopicNameInvalidNameTokenStartsWithNumber, ValidateTopicName("a/2").Code)
}

func TestValidateFullTopicName(t *testing.T) {
	assert.True(t, ValidateFullTopicName("/a/b").Valid())
	assert.Equal(t, types.FullTopicNameInvalidNotAbsolute, ValidateFullTopicName("a").Code)
}

// ============================================================================
//                              展开与解析
// ============================================================================

func TestExpand(t *testing.T) {
	cases := []struct {
		name, node, ns, want string
	}{
		{"chatter", "talker", "/", "/chatter"},
		{"chatter", "talker", "/robot", "/robot/chatter"},
		{"/abs", "talker", "/robot", "/abs"},
		{"~", "talker", "/", "/talker"},
		{"~/out", "talker", "/robot", "/robot/talker/out"},
		{"{node}_out", "talker", "/", "/talker_out"},
		{"{ns}/chatter", "talker", "/", "/chatter"},
		{"{namespace}/chatter", "talker", "/robot", "/robot/chatter"},
		{"/{node}/x", "talker", "/robot", "/talker/x"},
	}
	for _, c := range cases {
		got, err := Expand(c.name, c.node, c.ns)
		require.NoError(t, err, c.name)
		assert.Equal(t, c.want, got, c.name)
	}
}

func TestExpand_Errors(t *testing.T) {
	_, err := Expand("bad name", "talker", "/")
	assert.True(t, errors.Is(err, types.ErrTopicNameInvalid))

	_, err = Expand("{unknown}", "talker", "/")
	assert.True(t, errors.Is(err, types.ErrUnknownSubstitution))

	_, err = Expand("chatter", "bad node", "/")
	assert.True(t, errors.Is(err, types.ErrNodeInvalidName))

	_, err = Expand("chatter", "talker", "relative")
	assert.True(t, errors.Is(err, types.ErrNodeInvalidNamespace))
}

func TestResolve_Remap(t *testing.T) {
	rules := []types.RemapRule{
		{Kind: types.RemapService, From: "add", To: "/math/add"},
		{Kind: types.RemapTopic, From: "chatter", To: "babble"},
	}

	got, err := Resolve(ResolveRequest{Name: "chatter", Node: "talker", Namespace: "/ns", Remappings: rules})
	require.NoError(t, err)
	assert.Equal(t, "/ns/babble", got)

	got, err = Resolve(ResolveRequest{Name: "chatter", Node: "talker", Namespace: "/ns", Remappings: rules, OnlyExpand: true})
	require.NoError(t, err)
	assert.Equal(t, "/ns/chatter", got)

	// 话题规则不作用于服务
	got, err = Resolve(ResolveRequest{Name: "chatter", Node: "talker", Namespace: "/ns", Remappings: rules, IsService: true})
	require.NoError(t, err)
	assert.Equal(t, "/ns/chatter", got)

	got, err = Resolve(ResolveRequest{Name: "add", Node: "talker", Namespace: "/ns", Remappings: rules, IsService: true})
	require.NoError(t, err)
	assert.Equal(t, "/math/add", got)
}

func TestResolve_InvalidResult(t *testing.T) {
	_, err := Resolve(ResolveRequest{Name: "a//b", Node: "talker", Namespace: "/", IsService: true})
	assert.True(t, errors.Is(err, types.ErrServiceNameInvalid))

	_, err = Resolve(ResolveRequest{Name: "a//b", Node: "talker", Namespace: "/"})
	assert.True(t, errors.Is(err, types.ErrTopicNameInvalid))
}

func TestValidator_Contract(t *testing.T) {
	v := NewValidator()

	res, err := v.ValidateNodeName("bad name!")
	require.NoError(t, err)
	assert.False(t, res.Valid())

	ns, err := v.ValidateNamespace("/")
	require.NoError(t, err)
	assert.True(t, ns.Valid())

	assert.Equal(t, "/talker", FullyQualifiedName("/", "talker"))
	assert.Equal(t, "/a/talker", FullyQualifiedName("/a", "talker"))
}
