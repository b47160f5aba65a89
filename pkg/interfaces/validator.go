package interfaces

import "github.com/dep2p/go-nodecore/pkg/types"

// NameValidator 名称校验协作方
//
// 节点句柄初始化因名称或命名空间被拒绝时，节点核心会再次调用校验方，
// 以获得精确的违规位置和原因。
type NameValidator interface {
	// ValidateNodeName 校验节点名称
	//
	// error 非 nil 表示校验本身失败（而不是名称无效）。
	ValidateNodeName(name string) (types.NodeNameValidation, error)

	// ValidateNamespace 校验命名空间
	ValidateNamespace(namespace string) (types.NamespaceValidation, error)
}
