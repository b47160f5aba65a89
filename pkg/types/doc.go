// Package types 定义 NodeCore 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他 nodecore 内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - status.go     - Status 状态码, StatusError, 哨兵错误
//   - naming.go     - 节点名称、命名空间、话题名称的校验结果
//   - node.go       - CallbackGroupType, RemapKind, RemapRule, NodeOptions, ContextOptions
//   - allocator.go  - 名称解析缓冲区分配器
//
// # 错误判定
//
// 协作方返回的错误统一为 *StatusError，按状态码匹配：
//
//	if errors.Is(err, types.ErrNodeInvalidName) {
//	    // 节点名称无效
//	}
//	code := types.StatusOf(err)
package types
