package rtcontext

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/types"
)

// ModuleName 模块名称
const ModuleName = "rtcontext"

// Params 共享上下文依赖参数
type Params struct {
	fx.In

	Middleware interfaces.Middleware
	Options    *types.ContextOptions `optional:"true"`
}

// Result 共享上下文导出结果
type Result struct {
	fx.Out

	Context *Context
}

// provideContext 创建共享上下文
func provideContext(p Params) (Result, error) {
	opts := types.DefaultContextOptions()
	if p.Options != nil {
		opts = *p.Options
	}
	c, err := New(p.Middleware, opts)
	if err != nil {
		return Result{}, err
	}
	return Result{Context: c}, nil
}

// Module 返回 Fx 模块
//
// 应用停止时先关闭上下文（执行关闭回调），再释放创建者引用。
func Module() fx.Option {
	return fx.Module(ModuleName,
		fx.Provide(provideContext),
		fx.Invoke(registerLifecycle),
	)
}

func registerLifecycle(lc fx.Lifecycle, c *Context) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			err := c.Shutdown("application stopped")
			if err == ErrShutdown {
				err = nil
			}
			_ = c.Close()
			return err
		},
	})
}
