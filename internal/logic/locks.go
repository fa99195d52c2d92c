package logic

import (
	"sync"
)

// projectLocks 按项目串行化资金相关写操作。
// 数据库层的唯一索引和条件更新是最终保障，这里只是避免同进程内的并发竞争。
var projectLocks sync.Map

// lockProject 获取项目级互斥锁
func lockProject(projectId int64) *sync.Mutex {
	mu, _ := projectLocks.LoadOrStore(projectId, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
