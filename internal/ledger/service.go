package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/artfolio/marketplace-chain-sync/internal/entity"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

var ErrBadTokenId = errors.New("token id is not a valid integer")

// Service is the read-only gateway to the ledger node. All calls are
// retryable transport operations; callers treat failure as transient.
type Service interface {
	CurrentBlock(ctx context.Context) (uint64, error)
	GetSettlementLogs(ctx context.Context, fromBlock, toBlock uint64) ([]entity.SettlementEvent, error)
	OwnerOf(ctx context.Context, tokenId string) (string, error)
}

type service struct {
	eth            *ethclient.Client
	settlementAddr common.Address
	registryAddr   common.Address
	marketplaceAbi abi.ABI
	registryAbi    abi.ABI
}

func NewService(client *rpc.Client, settlementContract, assetRegistry string) (Service, error) {
	marketplaceAbi, err := abi.JSON(strings.NewReader(marketplaceAbiJson))
	if err != nil {
		return nil, err
	}

	registryAbi, err := abi.JSON(strings.NewReader(registryAbiJson))
	if err != nil {
		return nil, err
	}

	return service{
		eth:            ethclient.NewClient(client),
		settlementAddr: common.HexToAddress(settlementContract),
		registryAddr:   common.HexToAddress(assetRegistry),
		marketplaceAbi: marketplaceAbi,
		registryAbi:    registryAbi,
	}, nil
}

func (s service) CurrentBlock(ctx context.Context) (uint64, error) {
	return s.eth.BlockNumber(ctx)
}

func (s service) GetSettlementLogs(ctx context.Context, fromBlock, toBlock uint64) ([]entity.SettlementEvent, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{s.settlementAddr},
		Topics:    [][]common.Hash{{s.marketplaceAbi.Events[settlementEventName].ID}},
	}

	logs, err := s.eth.FilterLogs(ctx, query)
	if err != nil {
		zap.L().With(
			zap.Error(err),
			zap.Uint64("from", fromBlock),
			zap.Uint64("to", toBlock),
		).Warn("Ledger: Failed to fetch settlement logs")
		return nil, err
	}

	return decodeSettlementLogs(s.marketplaceAbi, logs), nil
}

func (s service) OwnerOf(ctx context.Context, tokenId string) (string, error) {
	token, ok := new(big.Int).SetString(tokenId, 10)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrBadTokenId, tokenId)
	}

	data, err := s.registryAbi.Pack("ownerOf", token)
	if err != nil {
		return "", err
	}

	result, err := s.eth.CallContract(ctx, ethereum.CallMsg{To: &s.registryAddr, Data: data}, nil)
	if err != nil {
		return "", err
	}

	values, err := s.registryAbi.Unpack("ownerOf", result)
	if err != nil {
		return "", err
	}

	owner, ok := values[0].(common.Address)
	if !ok {
		return "", errors.New("ownerOf returned a non-address value")
	}

	return owner.Hex(), nil
}

// decodeSettlementLogs decodes in ledger order. A malformed log is skipped
// so one bad entry cannot poison the rest of the range.
func decodeSettlementLogs(marketplaceAbi abi.ABI, logs []types.Log) []entity.SettlementEvent {
	events := make([]entity.SettlementEvent, 0, len(logs))

	for _, l := range logs {
		if l.Removed {
			continue
		}

		ev, err := decodeSettlementLog(marketplaceAbi, l)
		if err != nil {
			zap.L().With(
				zap.Error(err),
				zap.String("txHash", l.TxHash.Hex()),
				zap.Uint64("blockNum", l.BlockNumber),
			).Warn("Ledger: Failed to decode settlement log")
			continue
		}

		events = append(events, ev)
	}

	return events
}

func decodeSettlementLog(marketplaceAbi abi.ABI, l types.Log) (entity.SettlementEvent, error) {
	settlement := marketplaceAbi.Events[settlementEventName]

	if len(l.Topics) != 4 || l.Topics[0] != settlement.ID {
		return entity.SettlementEvent{}, errors.New("log is not a settlement event")
	}

	values, err := settlement.Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return entity.SettlementEvent{}, err
	}
	if len(values) != 5 {
		return entity.SettlementEvent{}, errors.New("unexpected settlement payload arity")
	}

	price, priceOk := values[0].(*big.Int)
	paymentToken, tokenOk := values[1].(common.Address)
	royalty, royaltyOk := values[2].(*big.Int)
	platformFee, platformOk := values[3].(*big.Int)
	partnerFee, partnerOk := values[4].(*big.Int)
	if !priceOk || !tokenOk || !royaltyOk || !platformOk || !partnerOk {
		return entity.SettlementEvent{}, errors.New("unexpected settlement payload types")
	}

	return entity.SettlementEvent{
		TokenId:      new(big.Int).SetBytes(l.Topics[1].Bytes()).String(),
		Seller:       common.BytesToAddress(l.Topics[2].Bytes()).Hex(),
		Buyer:        common.BytesToAddress(l.Topics[3].Bytes()).Hex(),
		Price:        price,
		PaymentToken: paymentToken.Hex(),
		Royalty:      royalty,
		PlatformFee:  platformFee,
		PartnerFee:   partnerFee,
		TxHash:       l.TxHash.Hex(),
		BlockNum:     l.BlockNumber,
		LogIndex:     l.Index,
	}, nil
}
