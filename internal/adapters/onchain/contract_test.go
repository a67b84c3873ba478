package onchain_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/alejandrodnm/pixelwatch/internal/adapters/onchain"
	"github.com/alejandrodnm/pixelwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	buyer = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func makeLog(t *testing.T, name string, block uint64, index uint, args ...any) types.Log {
	t.Helper()
	data, topic, err := onchain.PackEventData(name, args...)
	require.NoError(t, err)
	return types.Log{
		Topics:      []common.Hash{topic},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.HexToHash("0xdeadbeef"),
		Index:       index,
	}
}

func TestDecodeLog_Listed(t *testing.T) {
	log := makeLog(t, onchain.EventPixelListed, 100, 0, owner, big.NewInt(5), big.NewInt(40))

	event, err := onchain.DecodeLog(log)
	require.NoError(t, err)

	assert.Equal(t, 5, event.PixelID)
	assert.Equal(t, domain.EventListed, event.EventType)
	assert.Equal(t, int64(40), event.PriceWei.Int64())
	assert.Equal(t, owner.Hex(), event.From)
	assert.Empty(t, event.To)
	assert.Equal(t, uint64(100), event.Block)
	assert.Zero(t, event.Timestamp) // resuelto por la pipeline, no aquí
}

func TestDecodeLog_ListedWithZeroPriceIsRemoved(t *testing.T) {
	log := makeLog(t, onchain.EventPixelListed, 100, 0, owner, big.NewInt(5), big.NewInt(0))

	event, err := onchain.DecodeLog(log)
	require.NoError(t, err)
	assert.Equal(t, domain.EventRemoved, event.EventType)
}

func TestDecodeLog_Sale(t *testing.T) {
	log := makeLog(t, onchain.EventPixelSale, 101, 2, owner, buyer, big.NewInt(5), big.NewInt(50))

	event, err := onchain.DecodeLog(log)
	require.NoError(t, err)

	assert.Equal(t, domain.EventSale, event.EventType)
	assert.Equal(t, owner.Hex(), event.From)
	assert.Equal(t, buyer.Hex(), event.To)
	assert.Equal(t, int64(50), event.PriceWei.Int64())
	assert.Equal(t, uint(2), event.LogIndex)
}

func TestDecodeLog_UnknownTopic(t *testing.T) {
	log := types.Log{
		Topics: []common.Hash{common.HexToHash("0x1234")},
		TxHash: common.HexToHash("0xdeadbeef"),
	}

	_, err := onchain.DecodeLog(log)
	assert.ErrorContains(t, err, "unknown topic")
}

func TestDecodeLog_NoTopics(t *testing.T) {
	_, err := onchain.DecodeLog(types.Log{})
	assert.ErrorContains(t, err, "without topics")
}

func TestDecodeLog_MalformedData(t *testing.T) {
	data, topic, err := onchain.PackEventData(onchain.EventPixelListed, owner, big.NewInt(5), big.NewInt(40))
	require.NoError(t, err)

	log := types.Log{
		Topics: []common.Hash{topic},
		Data:   data[:10], // truncado
	}

	_, err = onchain.DecodeLog(log)
	assert.Error(t, err)
}

func TestFilterQuery_CoversBothTopics(t *testing.T) {
	contract := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	q := onchain.FilterQuery(contract, big.NewInt(90), big.NewInt(100))

	require.Len(t, q.Addresses, 1)
	assert.Equal(t, contract, q.Addresses[0])
	require.Len(t, q.Topics, 1)
	assert.Len(t, q.Topics[0], 2)
	assert.Equal(t, int64(90), q.FromBlock.Int64())
	assert.Equal(t, int64(100), q.ToBlock.Int64())
}
