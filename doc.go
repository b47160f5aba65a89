// Package nodecore 提供节点核心运行时的公共 API
//
// NodeCore 是发布/订阅中间件客户端库中每个节点共有的部分：
// 它持有底层节点句柄并把句柄的生命周期绑定到共享上下文，
// 维护通信图变化信号和回调组注册表，并负责话题/服务名称的展开与重映射。
//
// # 快速开始
//
//	rt, err := nodecore.New(nodecore.WithPreset("development"))
//	if err != nil {
//	    return err
//	}
//	if err := rt.Start(ctx); err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	node, err := rt.CreateNode("talker", "/")
//	if err != nil {
//	    return err
//	}
//	defer node.Close()
//
//	fmt.Println(node.FullyQualifiedName()) // "/talker"
//
// # 错误
//
// 节点构造失败时返回以下错误之一，可用 errors.As 判定：
//   - *ResourceInitError: 守护条件或底层句柄创建失败
//   - *InvalidNameError: 节点名称无效，Diagnostic() 给出带定位符的诊断
//   - *InvalidNamespaceError: 命名空间无效
//   - *InternalInconsistencyError: 底层拒绝了校验方认为合法的名称
//
// 构造失败不会泄漏任何已获取的资源。
//
// # 并发
//
// Runtime 与 Node 的所有方法都可以并发调用。
// 节点句柄的初始化与终结在进程级串行锁内执行。
package nodecore
