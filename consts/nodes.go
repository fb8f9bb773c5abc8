package consts

const (
	// 分析师节点
	MomentumAnalyst = "momentum_analyst"

	// 工具节点
	Tools = "tools"

	// 图的入口和出口
	Load   = "load"
	Finish = "finish"
)
