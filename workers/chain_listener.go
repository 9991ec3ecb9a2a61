package workers

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"
	"time"

	"vibin-quest-system/services"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Event fragment of the token contract's ABI. Decoding goes through the ABI
// rather than raw byte offsets so a field layout mismatch surfaces as a
// decode error instead of a silently wrong hash.
const tokensClaimedABI = `[{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"recipient","type":"address"},{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"},{"indexed":false,"internalType":"bytes32","name":"messageHash","type":"bytes32"}],"name":"TokensClaimed","type":"event"}]`

var claimEventABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(tokensClaimedABI))
	if err != nil {
		panic(err)
	}
	return parsed
}()

var tokensClaimedTopic = claimEventABI.Events["TokensClaimed"].ID

// ChainListener polls the token contract for TokensClaimed events and feeds
// them into claim settlement. The event is the only authoritative proof that
// a prepared claim was actually redeemed.
type ChainListener struct {
	Client    *ethclient.Client
	Contract  common.Address
	Claims    *services.ClaimService
	lastBlock uint64
}

func NewChainListener(claims *services.ClaimService) *ChainListener {
	rpcURL := os.Getenv("RPC_URL")
	if rpcURL == "" {
		log.Fatal("RPC_URL environment variable is required")
	}
	contractAddr := os.Getenv("TOKEN_CONTRACT")
	if !common.IsHexAddress(contractAddr) {
		log.Fatal("TOKEN_CONTRACT environment variable must be a valid contract address")
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		log.Fatal("failed to connect to RPC endpoint:", err)
	}

	return &ChainListener{
		Client:   client,
		Contract: common.HexToAddress(contractAddr),
		Claims:   claims,
	}
}

// PollTokensClaimed scans new blocks for TokensClaimed logs on a ticker.
func PollTokensClaimed(ctx context.Context, listener *ChainListener, pollInterval time.Duration) {
	log.Println("Starting TokensClaimed polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("TokensClaimed polling stopped.")
			return
		case <-ticker.C:
			if err := listener.scanOnce(ctx); err != nil {
				log.Printf("❌ Error scanning for TokensClaimed events: %v", err)
			}
		}
	}
}

func (l *ChainListener) scanOnce(ctx context.Context) error {
	head, err := l.Client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get head block: %w", err)
	}
	if l.lastBlock == 0 {
		// First scan: start from the current head rather than genesis
		l.lastBlock = head
		return nil
	}
	if head <= l.lastBlock {
		return nil
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(l.lastBlock + 1),
		ToBlock:   new(big.Int).SetUint64(head),
		Addresses: []common.Address{l.Contract},
		Topics:    [][]common.Hash{{tokensClaimedTopic}},
	}
	logs, err := l.Client.FilterLogs(ctx, query)
	if err != nil {
		// Do NOT advance lastBlock on failure: retry the same window next tick
		return fmt.Errorf("failed to filter logs: %w", err)
	}

	for _, lg := range logs {
		if err := l.handleLog(lg); err != nil {
			log.Printf("❌ Failed to settle claim from tx %s: %v", lg.TxHash.Hex(), err)
			return err
		}
	}

	l.lastBlock = head
	if len(logs) > 0 {
		log.Printf("📥 Settled %d TokensClaimed event(s) up to block %d", len(logs), head)
	}
	return nil
}

func (l *ChainListener) handleLog(lg types.Log) error {
	// recipient is indexed (topic), so the data carries amount and messageHash
	fields, err := claimEventABI.Unpack("TokensClaimed", lg.Data)
	if err != nil {
		return fmt.Errorf("failed to decode TokensClaimed log: %w", err)
	}
	if len(fields) != 2 {
		return fmt.Errorf("unexpected TokensClaimed field count %d", len(fields))
	}
	rawHash, ok := fields[1].([32]byte)
	if !ok {
		return fmt.Errorf("unexpected TokensClaimed messageHash type %T", fields[1])
	}
	return l.Claims.SettleClaim(common.BytesToHash(rawHash[:]).Hex(), lg.TxHash.Hex())
}
