package idgen

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Initialize sets up the Snowflake ID generator with a node ID
func Initialize(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// GenerateID generates a new Snowflake ID as a string.
// Falls back to node 1 when Initialize was never called.
func GenerateID() string {
	_ = Initialize(1)
	return node.Generate().String()
}

// RequestID returns an ID for the X-Request-ID header of an outbound call
func RequestID() string {
	return "req-" + GenerateID()
}
