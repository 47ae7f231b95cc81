package snowflake

import (
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// 纪元从上线年份算起，id 更短
var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	node     *snowflake.Node
	once     sync.Once
	nodeErr  error
	errRange = errors.New("snowflake machine id and datacenter id must be within 0-31")
	errInit  = errors.New("snowflake generator is not initialized")
)

// Init 节点号由 datacenter(高 5 位) 和 machine(低 5 位) 拼成，api 与 worker 需配置不同值
func Init(machineID, dataCenterID int64) error {
	once.Do(func() {
		if machineID < 0 || machineID > 31 || dataCenterID < 0 || dataCenterID > 31 {
			nodeErr = errRange
			return
		}
		snowflake.Epoch = epoch.UnixMilli()
		node, nodeErr = snowflake.NewNode(dataCenterID<<5 | machineID)
	})
	return nodeErr
}

// NextID 护工 public_id
func NextID() (int64, error) {
	if node == nil {
		return 0, errInit
	}
	return node.Generate().Int64(), nil
}

// Prefixed 返回带类型前缀的 base58 id 生成器，例如 otp_xxx
func Prefixed(prefix string) func() (string, error) {
	return func() (string, error) {
		if node == nil {
			return "", errInit
		}
		return prefix + "_" + node.Generate().Base58(), nil
	}
}
