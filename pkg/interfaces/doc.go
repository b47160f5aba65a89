// Package interfaces 定义 NodeCore 与外部协作方之间的接口
//
//   - middleware.go  - Middleware 底层中间件, RuntimeHandle, NodeHandle, GuardCondition
//   - validator.go   - NameValidator 名称校验
//
// 节点核心只通过这些接口访问底层；internal/middleware/inproc 提供进程内实现，
// internal/naming 提供默认的名称校验实现。
package interfaces
