package onchain

// contract.go — Read-only binding for the PixelGrid marketplace contract.
//
// The indexer only cares about two events:
//   PixelListed(owner, tokenId, price) — price set (or cleared with price 0)
//   PixelSale(from, to, tokenId, price) — ownership transferred at a price
//
// Raw logs are decoded strictly: unknown topics and malformed payloads are
// rejected with an error instead of trusting positional args.

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/alejandrodnm/pixelwatch/internal/domain"
)

// Event names as emitted by the contract.
const (
	EventPixelListed = "PixelListed"
	EventPixelSale   = "PixelSale"
)

var (
	pixelGridABI abi.ABI

	// keccak topic ids, resolved once from the ABI
	pixelListedTopic common.Hash
	pixelSaleTopic   common.Hash
)

func init() {
	var err error

	pixelGridABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "PixelListed",
			"type": "event",
			"inputs": [
				{"name": "owner", "type": "address", "indexed": false},
				{"name": "tokenId", "type": "uint256", "indexed": false},
				{"name": "price", "type": "uint256", "indexed": false}
			]
		},
		{
			"name": "PixelSale",
			"type": "event",
			"inputs": [
				{"name": "from", "type": "address", "indexed": false},
				{"name": "to", "type": "address", "indexed": false},
				{"name": "tokenId", "type": "uint256", "indexed": false},
				{"name": "price", "type": "uint256", "indexed": false}
			]
		}
	]`))
	if err != nil {
		panic("pixelgrid abi parse: " + err.Error())
	}

	pixelListedTopic = pixelGridABI.Events[EventPixelListed].ID
	pixelSaleTopic = pixelGridABI.Events[EventPixelSale].ID
}

// FilterQuery builds the log filter matching both event kinds on the given
// contract over [fromBlock, toBlock]. Pass nil bounds for an open range.
func FilterQuery(contract common.Address, fromBlock, toBlock *big.Int) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []common.Address{contract},
		FromBlock: fromBlock,
		ToBlock:   toBlock,
		Topics:    [][]common.Hash{{pixelListedTopic, pixelSaleTopic}},
	}
}

type pixelListedArgs struct {
	Owner   common.Address
	TokenId *big.Int
	Price   *big.Int
}

type pixelSaleArgs struct {
	From    common.Address
	To      common.Address
	TokenId *big.Int
	Price   *big.Int
}

// DecodeLog normalizes a raw contract log into a PriceChangeEvent. The
// Timestamp field is left zero — the caller resolves the block time.
//
// Mapping:
//   PixelListed with price 0  → "removed"
//   PixelListed with price >0 → "listed"
//   PixelSale                 → "sale" (from/to carried over)
func DecodeLog(log types.Log) (domain.PriceChangeEvent, error) {
	if len(log.Topics) == 0 {
		return domain.PriceChangeEvent{}, fmt.Errorf("onchain.DecodeLog: log without topics (tx %s)", log.TxHash.Hex())
	}

	event := domain.PriceChangeEvent{
		Block:    log.BlockNumber,
		TxHash:   log.TxHash.Hex(),
		LogIndex: log.Index,
	}

	switch log.Topics[0] {
	case pixelListedTopic:
		var args pixelListedArgs
		if err := pixelGridABI.UnpackIntoInterface(&args, EventPixelListed, log.Data); err != nil {
			return domain.PriceChangeEvent{}, fmt.Errorf("onchain.DecodeLog: unpack %s: %w", EventPixelListed, err)
		}
		pixelID, err := tokenToPixelID(args.TokenId)
		if err != nil {
			return domain.PriceChangeEvent{}, fmt.Errorf("onchain.DecodeLog: %s: %w", EventPixelListed, err)
		}

		event.PixelID = pixelID
		event.PriceWei = args.Price
		event.From = args.Owner.Hex()
		if args.Price.Sign() == 0 {
			event.EventType = domain.EventRemoved
		} else {
			event.EventType = domain.EventListed
		}
		return event, nil

	case pixelSaleTopic:
		var args pixelSaleArgs
		if err := pixelGridABI.UnpackIntoInterface(&args, EventPixelSale, log.Data); err != nil {
			return domain.PriceChangeEvent{}, fmt.Errorf("onchain.DecodeLog: unpack %s: %w", EventPixelSale, err)
		}
		pixelID, err := tokenToPixelID(args.TokenId)
		if err != nil {
			return domain.PriceChangeEvent{}, fmt.Errorf("onchain.DecodeLog: %s: %w", EventPixelSale, err)
		}

		event.PixelID = pixelID
		event.PriceWei = args.Price
		event.From = args.From.Hex()
		event.To = args.To.Hex()
		event.EventType = domain.EventSale
		return event, nil
	}

	return domain.PriceChangeEvent{}, fmt.Errorf("onchain.DecodeLog: unknown topic %s (tx %s)", log.Topics[0].Hex(), log.TxHash.Hex())
}

// PackEventData encodes the non-indexed args of the named event. Used by
// tests to build raw logs the way the contract would emit them.
func PackEventData(name string, args ...any) ([]byte, common.Hash, error) {
	ev, ok := pixelGridABI.Events[name]
	if !ok {
		return nil, common.Hash{}, fmt.Errorf("onchain.PackEventData: unknown event %q", name)
	}
	data, err := ev.Inputs.Pack(args...)
	if err != nil {
		return nil, common.Hash{}, fmt.Errorf("onchain.PackEventData: pack %s: %w", name, err)
	}
	return data, ev.ID, nil
}

// tokenToPixelID narrows the uint256 token id to an int pixel id. The grid is
// tiny (20736 pixels) so anything outside int64 is a malformed log.
func tokenToPixelID(token *big.Int) (int, error) {
	if token == nil || !token.IsInt64() {
		return 0, fmt.Errorf("token id %v out of range", token)
	}
	return int(token.Int64()), nil
}
