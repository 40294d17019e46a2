package main

// 退出码
const (
	ExitSuccess     = 0 // 成功
	ExitError       = 1 // 一般错误（参数错误、运行失败）
	ExitConfigError = 2 // 配置错误（配置非法、路径不存在）
	ExitDataError   = 3 // 数据错误（输入格式错误、词不在词典中、形状不匹配）
)
