// pkg/idgen/account_number.go
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

const cryptoPrefix = "CRYPTO"

// AccountNumberGenerator issues account numbers that stay unique across concurrent
// requests and across nodes with distinct node ids.
type AccountNumberGenerator interface {
	BankAccountNumber() string
	CryptoAccountNumber() string
}

type snowflakeGenerator struct {
	node *snowflake.Node
}

// NewAccountNumberGenerator creates a generator for the given node id (0-1023).
func NewAccountNumberGenerator(nodeID int64) (AccountNumberGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node failed: %w", err)
	}
	return &snowflakeGenerator{node: node}, nil
}

// BankAccountNumber returns a numeric account number.
func (g *snowflakeGenerator) BankAccountNumber() string {
	return g.node.Generate().String()
}

// CryptoAccountNumber returns "CRYPTO" followed by a numeric id.
func (g *snowflakeGenerator) CryptoAccountNumber() string {
	return cryptoPrefix + g.node.Generate().String()
}
